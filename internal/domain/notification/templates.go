package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"welfare-app-go/internal/domain/member"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const updateSubject = "Profile Updated Notification"

type scheme struct {
	Name  string
	Short string
}

var schemes = map[member.Category]scheme{
	member.CategoryEngineer: {Name: "Engineers Self Support Scheme", Short: "ESS"},
	member.CategoryDoctor:   {Name: "Health Care Professionals Self Support Scheme", Short: "HCPSST"},
}

type templateData struct {
	Community     string
	Title         string
	Scheme        string
	SchemeShort   string
	MemberName    string
	RecipientName string
	Changes       []member.Change
}

type recipient struct {
	role  Role
	name  string
	email string
}

func recipients(m member.Member) []recipient {
	all := []recipient{
		{role: RoleMember, name: m.Name, email: m.Email},
		{role: RoleNominee, name: m.Nominee.Name, email: m.Nominee.Email},
		{role: RoleFamilyMember1, name: m.FamilyMember1.Name, email: m.FamilyMember1.Email},
		{role: RoleFamilyMember2, name: m.FamilyMember2.Name, email: m.FamilyMember2.Email},
	}
	out := make([]recipient, 0, len(all))
	for _, r := range all {
		r.email = strings.TrimSpace(r.email)
		if r.email != "" {
			out = append(out, r)
		}
	}
	return out
}

// contactBcc lists contact addresses copied on the member's own email.
func contactBcc(list []recipient) []string {
	var memberEmail string
	for _, r := range list {
		if r.role == RoleMember {
			memberEmail = r.email
		}
	}

	var bcc []string
	seen := map[string]bool{strings.ToLower(memberEmail): true}
	for _, r := range list {
		key := strings.ToLower(r.email)
		if r.role == RoleMember || seen[key] {
			continue
		}
		seen[key] = true
		bcc = append(bcc, r.email)
	}
	return bcc
}

func baseData(m member.Member) templateData {
	s := schemes[m.Category]
	return templateData{
		Community:   m.Category.Community(),
		Title:       m.Category.Title(),
		Scheme:      s.Name,
		SchemeShort: s.Short,
		MemberName:  m.Name,
	}
}

// WelcomeEnvelopes renders the registration emails for the member and each contact with an email.
func WelcomeEnvelopes(m member.Member) ([]Envelope, error) {
	list := recipients(m)
	envelopes := make([]Envelope, 0, len(list))
	for _, r := range list {
		data := baseData(m)
		data.RecipientName = r.name

		name := "welcome_family"
		subject := fmt.Sprintf("%s Registration Notification - %s", data.Title, data.Community)
		switch r.role {
		case RoleMember:
			name = "welcome_member"
			subject = "Welcome to " + data.Community
		case RoleNominee:
			name = "welcome_nominee"
		}

		html, err := render(name, data)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, Envelope{Role: r.role, To: r.email, Subject: subject, HTML: html})
	}
	attachBcc(envelopes, list)
	return envelopes, nil
}

// UpdateEnvelopes renders the change summary for the member and each contact with an email.
func UpdateEnvelopes(m member.Member, changes []member.Change) ([]Envelope, error) {
	list := recipients(m)
	envelopes := make([]Envelope, 0, len(list))
	for _, r := range list {
		data := baseData(m)
		data.RecipientName = r.name
		data.Changes = changes

		html, err := render("update", data)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, Envelope{Role: r.role, To: r.email, Subject: updateSubject, HTML: html})
	}
	attachBcc(envelopes, list)
	return envelopes, nil
}

func attachBcc(envelopes []Envelope, list []recipient) {
	bcc := contactBcc(list)
	for i := range envelopes {
		if envelopes[i].Role == RoleMember {
			envelopes[i].Bcc = bcc
		}
	}
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
