package member

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"welfare-app-go/internal/storage"
)

// Wire names of submitted fields.
const (
	FieldName             = "name"
	FieldAge              = "age"
	FieldSex              = "sex"
	FieldQualification    = "qualification"
	FieldPhone            = "phone"
	FieldAlternateMobile  = "alternateMobile"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldHouseAddress     = "houseAddress"
	FieldOfficeAddress    = "officeAddress"
	FieldAcceptTerms      = "acceptTerms"
	FieldSubscribeUpdates = "subscribeUpdates"
	FieldNominee          = "nominee"
	FieldFamilyMember1    = "familyMember1"
	FieldFamilyMember2    = "familyMember2"
	FieldPassportPhoto    = "passportPhoto"
	FieldCertificates     = "certificates"
)

// NestedFields lists the fields that carry an object, either structured or JSON encoded.
var NestedFields = []string{FieldNominee, FieldFamilyMember1, FieldFamilyMember2}

const minPasswordLength = 6

// Form is a transport neutral view of a registration or update request.
// Fields holds scalar values as text, Nested holds raw nested values and
// Files holds uploaded documents keyed by field name.
type Form struct {
	Fields map[string]string
	Nested map[string]any
	Files  map[string]storage.File
}

func (f Form) text(name string) string {
	return strings.TrimSpace(f.Fields[name])
}

func (f Form) object(name string) (map[string]any, error) {
	return parseObject(name, f.Nested[name])
}

// parseObject accepts a decoded JSON object or a JSON encoded string.
// A missing or empty value yields a nil map.
func parseObject(name string, raw any) (map[string]any, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return value, nil
	case string:
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, nil
		}
		decoder := json.NewDecoder(bytes.NewBufferString(value))
		decoder.UseNumber()
		var parsed map[string]any
		if err := decoder.Decode(&parsed); err != nil {
			return nil, invalid("Invalid " + name + " format")
		}
		return parsed, nil
	default:
		return nil, invalid("Invalid " + name + " format")
	}
}

func validateNomineeBanking(obj map[string]any) error {
	account := strings.TrimSpace(stringValue(obj["bankAccountNumber"]))
	confirm := strings.TrimSpace(stringValue(obj["confirmBankAccountNumber"]))
	ifsc := strings.TrimSpace(stringValue(obj["ifscCode"]))
	holder := strings.TrimSpace(stringValue(obj["bankHolderName"]))

	if account == "" || confirm == "" || ifsc == "" || holder == "" {
		return invalid("Nominee bank details are required.")
	}
	if account != confirm {
		return invalid("Nominee account numbers do not match.")
	}
	return nil
}

type textField struct {
	key   string
	value *string
}

func mergeText(prefix string, obj map[string]any, fields []textField) []Change {
	var changes []Change
	for _, field := range fields {
		raw, ok := obj[field.key]
		if !ok || raw == nil {
			continue
		}
		next := strings.TrimSpace(stringValue(raw))
		if next == *field.value {
			continue
		}
		changes = append(changes, Change{Field: prefix + "." + field.key, Old: *field.value, New: next})
		*field.value = next
	}
	return changes
}

func mergeAge(prefix string, obj map[string]any, age **int) (*Change, error) {
	raw, ok := obj["age"]
	if !ok || raw == nil {
		return nil, nil
	}
	next, err := parseAge(prefix+".age", stringValue(raw))
	if err != nil {
		return nil, err
	}
	if formatAge(next) == formatAge(*age) {
		return nil, nil
	}
	change := &Change{Field: prefix + ".age", Old: formatAge(*age), New: formatAge(next)}
	*age = next
	return change, nil
}

// mergeNominee copies known keys from obj into n. The confirmation key is ignored.
func mergeNominee(n *Nominee, obj map[string]any) ([]Change, error) {
	changes := mergeText(FieldNominee, obj, []textField{
		{"name", &n.Name},
		{"sex", &n.Sex},
		{"email", &n.Email},
		{"phone", &n.Phone},
		{"bankAccountNumber", &n.BankAccountNumber},
		{"ifscCode", &n.IFSCCode},
		{"bankHolderName", &n.BankHolderName},
	})
	change, err := mergeAge(FieldNominee, obj, &n.Age)
	if err != nil {
		return nil, err
	}
	if change != nil {
		changes = append(changes, *change)
	}
	return changes, nil
}

func mergeFamilyMember(prefix string, f *FamilyMember, obj map[string]any) ([]Change, error) {
	changes := mergeText(prefix, obj, []textField{
		{"name", &f.Name},
		{"sex", &f.Sex},
		{"email", &f.Email},
		{"mobile", &f.Mobile},
		{"address", &f.Address},
	})
	change, err := mergeAge(prefix, obj, &f.Age)
	if err != nil {
		return nil, err
	}
	if change != nil {
		changes = append(changes, *change)
	}
	return changes, nil
}

func parseAge(field, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(value)
	if err != nil {
		parsed, floatErr := strconv.ParseFloat(value, 64)
		if floatErr != nil || parsed != float64(int(parsed)) {
			return nil, invalid(field + " must be a whole number")
		}
		age = int(parsed)
	}
	if age < 0 {
		return nil, invalid(field + " must not be negative")
	}
	return &age, nil
}

func formatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func stringValue(raw any) string {
	switch value := raw.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
