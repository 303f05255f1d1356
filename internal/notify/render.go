package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode"

	"github.com/harjot20022001/bug-tracker/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const defaultFrontendURL = "http://localhost:5173"

// Renderer builds email bodies. The plain-text part is Markdown; the HTML
// part is the same Markdown rendered into the branded layout. User supplied
// values are escaped so they render as literal text, and bare URLs are not
// linkified.
type Renderer struct {
	frontendURL string
	md          goldmark.Markdown
	layout      *template.Template
}

func NewRenderer(frontendURL string) *Renderer {
	frontendURL = strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if frontendURL == "" {
		frontendURL = defaultFrontendURL
	}
	return &Renderer{
		frontendURL: frontendURL,
		md:          goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
		layout:      template.Must(template.New("email").Parse(layoutHTML)),
	}
}

// TicketURL links to the ticket's project page in the web client.
func (r *Renderer) TicketURL(ticket types.Ticket) string {
	return r.frontendURL + "/projects/" + ticket.ProjectID
}

// Assignment renders the new-assignment email.
func (r *Renderer) Assignment(ticket types.Ticket, actor types.UserRef) (string, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "## New Ticket Assigned to You\n\n")
	fmt.Fprintf(&b, "### %s\n\n", escapeMarkdown(ticket.Title))
	if desc := strings.TrimSpace(ticket.Description); desc != "" {
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(desc))
	}
	fmt.Fprintf(&b, "- **Priority:** %s\n", ticket.Priority)
	fmt.Fprintf(&b, "- **Status:** %s\n", ticket.Status)
	fmt.Fprintf(&b, "- **Project:** %s\n", escapeMarkdown(projectName(ticket)))
	fmt.Fprintf(&b, "- **Assigned by:** %s\n\n", escapeMarkdown(displayName(actor)))
	fmt.Fprintf(&b, "[View Ticket](%s)\n", r.TicketURL(ticket))

	return r.render(b.String(), layoutData{
		Title:         ticket.Title,
		Priority:      string(ticket.Priority),
		PriorityColor: PriorityColor(ticket.Priority),
		Status:        string(ticket.Status),
		StatusColor:   StatusColor(ticket.Status),
		Link:          r.TicketURL(ticket),
	})
}

// Update renders the change summary email.
func (r *Renderer) Update(ticket types.Ticket, actor types.UserRef, changes types.TicketChanges) (string, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "## Ticket Updated\n\n")
	fmt.Fprintf(&b, "### %s\n\n", escapeMarkdown(ticket.Title))
	fmt.Fprintf(&b, "**Updated by:** %s\n\n", escapeMarkdown(displayName(actor)))
	fmt.Fprintf(&b, "**Changes made:**\n\n")
	for _, change := range changes.Entries() {
		fmt.Fprintf(&b, "- **%s:** %s → %s\n", FieldLabel(change.Field), escapeMarkdown(change.Old), escapeMarkdown(change.New))
	}
	fmt.Fprintf(&b, "\n[View Ticket](%s)\n", r.TicketURL(ticket))

	return r.render(b.String(), layoutData{
		Title:         ticket.Title,
		Priority:      string(ticket.Priority),
		PriorityColor: PriorityColor(ticket.Priority),
		Status:        string(ticket.Status),
		StatusColor:   StatusColor(ticket.Status),
		Link:          r.TicketURL(ticket),
	})
}

type layoutData struct {
	Title         string
	Priority      string
	PriorityColor string
	Status        string
	StatusColor   string
	Link          string
	Body          template.HTML
}

func (r *Renderer) render(markdown string, data layoutData) (string, string, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &body); err != nil {
		return "", "", err
	}
	// goldmark drops raw HTML unless configured otherwise.
	data.Body = template.HTML(body.String())

	var out bytes.Buffer
	if err := r.layout.Execute(&out, data); err != nil {
		return "", "", err
	}
	return markdown, out.String(), nil
}

// PriorityColor returns the badge colour for a priority.
func PriorityColor(p types.TicketPriority) string {
	switch p {
	case types.PriorityHigh:
		return "#dc3545"
	case types.PriorityMedium:
		return "#fd7e14"
	case types.PriorityLow:
		return "#28a745"
	}
	return "#6c757d"
}

// StatusColor returns the badge colour for a status.
func StatusColor(s types.TicketStatus) string {
	switch s {
	case types.StatusOpen:
		return "#007bff"
	case types.StatusInProgress:
		return "#fd7e14"
	}
	return "#6c757d"
}

// FieldLabel turns a camelCase field name into title words, e.g.
// "assignedTo" becomes "Assigned To".
func FieldLabel(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`,
	"#", `\#`, "~", `\~`, "|", `\|`, "!", `\!`, "&", `\&`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func projectName(ticket types.Ticket) string {
	if ticket.Project == nil || ticket.Project.Name == "" {
		return "N/A"
	}
	return ticket.Project.Name
}

func displayName(ref types.UserRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	if ref.Email != "" {
		return ref.Email
	}
	return "Unknown user"
}

const layoutHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">BugTracker</h1>
    <p style="color: white; margin: 5px 0;">Issue Management System</p>
  </div>
  <div style="padding: 30px; background: #f8f9fa;">
    <div style="background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); color: #333; line-height: 1.6;">
      <p>
        <span style="color: {{.PriorityColor}}; font-weight: bold;">{{.Priority}}</span>
        &middot;
        <span style="color: {{.StatusColor}}; font-weight: bold;">{{.Status}}</span>
      </p>
      {{.Body}}
      <div style="text-align: center; margin-top: 30px;">
        <a href="{{.Link}}" style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Ticket</a>
      </div>
    </div>
  </div>
  <div style="background: #e9ecef; padding: 15px; text-align: center; color: #666; font-size: 12px;">
    <p>This is an automated notification from BugTracker Issue Management System.</p>
  </div>
</div>
`
