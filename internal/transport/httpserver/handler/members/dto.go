package members

import (
	"time"

	"welfare-app-go/internal/domain/member"
)

type nomineeResponse struct {
	Name              string `json:"name"`
	Age               *int   `json:"age,omitempty"`
	Sex               string `json:"sex"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	BankAccountNumber string `json:"bankAccountNumber"`
	IFSCCode          string `json:"ifscCode"`
	BankHolderName    string `json:"bankHolderName"`
}

type familyMemberResponse struct {
	Name    string `json:"name"`
	Age     *int   `json:"age,omitempty"`
	Sex     string `json:"sex"`
	Email   string `json:"email"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
}

// memberResponse is the public view of a member. The password hash has no field here.
type memberResponse struct {
	ID                    string               `json:"_id"`
	Category              string               `json:"category"`
	Name                  string               `json:"name"`
	Age                   *int                 `json:"age,omitempty"`
	Sex                   string               `json:"sex"`
	Qualification         string               `json:"qualification"`
	Phone                 string               `json:"phone"`
	AlternateMobile       string               `json:"alternateMobile"`
	Email                 string               `json:"email"`
	PassportPhoto         string               `json:"passportPhoto"`
	PassportPhotoPublicID string               `json:"passportPhotoPublicId"`
	Certificates          string               `json:"certificates"`
	CertificatesPublicID  string               `json:"certificatesPublicId"`
	HouseAddress          string               `json:"houseAddress"`
	OfficeAddress         string               `json:"officeAddress"`
	Nominee               nomineeResponse      `json:"nominee"`
	FamilyMember1         familyMemberResponse `json:"familyMember1"`
	FamilyMember2         familyMemberResponse `json:"familyMember2"`
	AcceptTerms           bool                 `json:"acceptTerms"`
	SubscribeUpdates      bool                 `json:"subscribeUpdates"`
	Status                string               `json:"status"`
	ApprovedDisease       string               `json:"approvedDisease,omitempty"`
	ApprovedMessage       string               `json:"approvedMessage,omitempty"`
	ApprovedDate          *time.Time           `json:"approvedDate,omitempty"`
	DeceasedReason        string               `json:"deceasedReason,omitempty"`
	DeceasedDisease       string               `json:"deceasedDisease,omitempty"`
	DeceasedDate          *time.Time           `json:"deceasedDate,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

type registerResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type approveRequest struct {
	Disease string `json:"disease"`
	Message string `json:"message"`
}

type deceasedRequest struct {
	Reason      string `json:"reason"`
	DiseaseName string `json:"diseaseName"`
}

type statusResponse struct {
	Message string         `json:"message"`
	Member  memberResponse `json:"member"`
}

func toMemberResponse(m member.Member) memberResponse {
	return memberResponse{
		ID:                    m.ID,
		Category:              string(m.Category),
		Name:                  m.Name,
		Age:                   m.Age,
		Sex:                   m.Sex,
		Qualification:         m.Qualification,
		Phone:                 m.Phone,
		AlternateMobile:       m.AlternateMobile,
		Email:                 m.Email,
		PassportPhoto:         m.PassportPhoto,
		PassportPhotoPublicID: m.PassportPhotoPublicID,
		Certificates:          m.Certificates,
		CertificatesPublicID:  m.CertificatesPublicID,
		HouseAddress:          m.HouseAddress,
		OfficeAddress:         m.OfficeAddress,
		Nominee: nomineeResponse{
			Name:              m.Nominee.Name,
			Age:               m.Nominee.Age,
			Sex:               m.Nominee.Sex,
			Email:             m.Nominee.Email,
			Phone:             m.Nominee.Phone,
			BankAccountNumber: m.Nominee.BankAccountNumber,
			IFSCCode:          m.Nominee.IFSCCode,
			BankHolderName:    m.Nominee.BankHolderName,
		},
		FamilyMember1:    toFamilyMemberResponse(m.FamilyMember1),
		FamilyMember2:    toFamilyMemberResponse(m.FamilyMember2),
		AcceptTerms:      m.AcceptTerms,
		SubscribeUpdates: m.SubscribeUpdates,
		Status:           string(m.Status),
		ApprovedDisease:  m.ApprovedDisease,
		ApprovedMessage:  m.ApprovedMessage,
		ApprovedDate:     m.ApprovedDate,
		DeceasedReason:   m.DeceasedReason,
		DeceasedDisease:  m.DeceasedDisease,
		DeceasedDate:     m.DeceasedDate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toFamilyMemberResponse(f member.FamilyMember) familyMemberResponse {
	return familyMemberResponse{
		Name:    f.Name,
		Age:     f.Age,
		Sex:     f.Sex,
		Email:   f.Email,
		Mobile:  f.Mobile,
		Address: f.Address,
	}
}

func toMemberResponses(members []member.Member) []memberResponse {
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	return out
}
