package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"welfare-app-go/internal/domain/member"
)

const sheetName = "Members"

var memberHeader = []interface{}{
	"ID", "Name", "Age", "Sex", "Qualification", "Phone", "Alternate Mobile", "Email",
	"House Address", "Office Address", "Status",
	"Nominee Name", "Nominee Phone", "Nominee Email", "Nominee Account", "Nominee IFSC", "Nominee Holder",
	"Family Member 1", "Family Member 1 Mobile", "Family Member 2", "Family Member 2 Mobile",
	"Passport Photo", "Certificates",
	"Approved Disease", "Approved Date", "Deceased Reason", "Deceased Date", "Registered At",
}

// WriteMembers renders members as a single sheet workbook.
func WriteMembers(w io.Writer, category member.Category, members []member.Member) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: category.Community() + " members"}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &memberHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(memberHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, m := range members {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := memberRow(m)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

func memberRow(m member.Member) []interface{} {
	return []interface{}{
		m.ID, m.Name, ageCell(m.Age), m.Sex, m.Qualification, m.Phone, m.AlternateMobile, m.Email,
		m.HouseAddress, m.OfficeAddress, string(m.Status),
		m.Nominee.Name, m.Nominee.Phone, m.Nominee.Email, m.Nominee.BankAccountNumber, m.Nominee.IFSCCode, m.Nominee.BankHolderName,
		m.FamilyMember1.Name, m.FamilyMember1.Mobile, m.FamilyMember2.Name, m.FamilyMember2.Mobile,
		m.PassportPhoto, m.Certificates,
		m.ApprovedDisease, dateCell(m.ApprovedDate), m.DeceasedReason, dateCell(m.DeceasedDate), dateCell(&m.CreatedAt),
	}
}

func ageCell(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

func dateCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
