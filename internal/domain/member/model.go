package member

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryEngineer Category = "engineer"
	CategoryDoctor   Category = "doctor"
)

var Categories = []Category{CategoryEngineer, CategoryDoctor}

// CategoryFromPath maps a route segment such as "engineers" to its category.
func CategoryFromPath(segment string) (Category, bool) {
	for _, category := range Categories {
		if category.Path() == segment {
			return category, true
		}
	}
	return "", false
}

func (c Category) Path() string {
	return string(c) + "s"
}

func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

func (c Category) Community() string {
	return c.Title() + "s Community"
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeceased Status = "deceased"
)

const RoleAdmin = "admin"

type Member struct {
	ID                    string       `gorm:"type:uuid;primaryKey" bson:"_id"`
	Category              Category     `gorm:"type:varchar(16);not null;uniqueIndex:idx_members_category_email;uniqueIndex:idx_members_category_phone" bson:"category"`
	Name                  string       `gorm:"not null" bson:"name"`
	Age                   *int         `bson:"age,omitempty"`
	Sex                   string       `bson:"sex"`
	Qualification         string       `bson:"qualification"`
	Phone                 string       `gorm:"not null;uniqueIndex:idx_members_category_phone" bson:"phone"`
	AlternateMobile       string       `bson:"alternateMobile"`
	Email                 string       `gorm:"not null;uniqueIndex:idx_members_category_email" bson:"email"`
	PasswordHash          string       `gorm:"not null" bson:"passwordHash"`
	PassportPhoto         string       `bson:"passportPhoto"`
	PassportPhotoPublicID string       `gorm:"column:passport_photo_public_id" bson:"passportPhotoPublicId"`
	Certificates          string       `bson:"certificates"`
	CertificatesPublicID  string       `gorm:"column:certificates_public_id" bson:"certificatesPublicId"`
	HouseAddress          string       `bson:"houseAddress"`
	OfficeAddress         string       `bson:"officeAddress"`
	Nominee               Nominee      `gorm:"embedded;embeddedPrefix:nominee_" bson:"nominee"`
	FamilyMember1         FamilyMember `gorm:"embedded;embeddedPrefix:family_member1_" bson:"familyMember1"`
	FamilyMember2         FamilyMember `gorm:"embedded;embeddedPrefix:family_member2_" bson:"familyMember2"`
	AcceptTerms           bool         `bson:"acceptTerms"`
	SubscribeUpdates      bool         `bson:"subscribeUpdates"`
	Status                Status       `gorm:"type:varchar(16);not null;index" bson:"status"`
	ApprovedDisease       string       `bson:"approvedDisease"`
	ApprovedMessage       string       `bson:"approvedMessage"`
	ApprovedDate          *time.Time   `bson:"approvedDate,omitempty"`
	DeceasedReason        string       `bson:"deceasedReason"`
	DeceasedDisease       string       `bson:"deceasedDisease"`
	DeceasedDate          *time.Time   `bson:"deceasedDate,omitempty"`
	CreatedAt             time.Time    `gorm:"autoCreateTime" bson:"createdAt"`
	UpdatedAt             time.Time    `gorm:"autoUpdateTime" bson:"updatedAt"`
}

// Nominee has no confirmation column; the confirmation only exists on input.
type Nominee struct {
	Name              string `bson:"name"`
	Age               *int   `bson:"age,omitempty"`
	Sex               string `bson:"sex"`
	Email             string `bson:"email"`
	Phone             string `bson:"phone"`
	BankAccountNumber string `gorm:"column:bank_account_number" bson:"bankAccountNumber"`
	IFSCCode          string `gorm:"column:ifsc_code" bson:"ifscCode"`
	BankHolderName    string `gorm:"column:bank_holder_name" bson:"bankHolderName"`
}

type FamilyMember struct {
	Name    string `bson:"name"`
	Age     *int   `bson:"age,omitempty"`
	Sex     string `bson:"sex"`
	Email   string `bson:"email"`
	Mobile  string `bson:"mobile"`
	Address string `bson:"address"`
}

// Change is one modified field recorded during a profile update.
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Actor is the authenticated caller of an operation. The zero value is anonymous.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may read or modify the given member.
func (a Actor) CanAccess(category Category, id string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.ID != "" && a.Role == string(category) && a.ID == id
}

type ListFilter struct {
	Status Status
}
