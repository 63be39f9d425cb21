package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"welfare-app-go/internal/storage"
	"welfare-app-go/pkg/logger"
)

type TokenIssuer interface {
	Issue(id, role string) (string, error)
}

type Uploader interface {
	UploadPhoto(ctx context.Context, folder string, file storage.File) (storage.Object, error)
	UploadDocument(ctx context.Context, folder string, file storage.File) (storage.Object, error)
}

// Notifier schedules emails about a member. Errors are logged by the service and never returned to callers.
type Notifier interface {
	MemberRegistered(ctx context.Context, member Member) error
	MemberUpdated(ctx context.Context, member Member, changes []Change) error
}

// Session is returned by registration and login.
type Session struct {
	Member *Member
	Token  string
}

type UpdateResult struct {
	Member  *Member
	Changes []Change
}

type Service struct {
	repo                Repository
	tokens              TokenIssuer
	uploader            Uploader
	notifier            Notifier
	log                 logger.Logger
	now                 func() time.Time
	passwordCost        int
	uploadTimeout       time.Duration
	statusRequiresAdmin bool
}

type Option func(*Service)

func WithUploader(uploader Uploader) Option {
	return func(s *Service) {
		s.uploader = uploader
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		s.passwordCost = cost
	}
}

func WithUploadTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.uploadTimeout = timeout
	}
}

// WithStatusRequiresAdmin restricts approval and deceased marking to admin callers.
func WithStatusRequiresAdmin(required bool) Option {
	return func(s *Service) {
		s.statusRequiresAdmin = required
	}
}

func NewService(repo Repository, tokens TokenIssuer, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		tokens:        tokens,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
		passwordCost:  bcrypt.DefaultCost,
		uploadTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Register(ctx context.Context, category Category, form Form) (*Session, error) {
	name := form.text(FieldName)
	phone := form.text(FieldPhone)
	email := normalizeEmail(form.Fields[FieldEmail])
	password := form.Fields[FieldPassword]
	if name == "" || phone == "" || email == "" || password == "" {
		return nil, invalid("Name, phone, email and password are required")
	}

	nomineeInput, err := form.object(FieldNominee)
	if err != nil {
		return nil, err
	}
	if nomineeInput == nil {
		return nil, invalid("Nominee bank details are required.")
	}
	if err := validateNomineeBanking(nomineeInput); err != nil {
		return nil, err
	}

	age, err := parseAge(FieldAge, form.Fields[FieldAge])
	if err != nil {
		return nil, err
	}

	member := Member{
		ID:               uuid.NewString(),
		Category:         category,
		Name:             name,
		Age:              age,
		Sex:              form.text(FieldSex),
		Qualification:    form.text(FieldQualification),
		Phone:            phone,
		AlternateMobile:  form.text(FieldAlternateMobile),
		Email:            email,
		HouseAddress:     form.text(FieldHouseAddress),
		OfficeAddress:    form.text(FieldOfficeAddress),
		AcceptTerms:      parseFlag(form.Fields[FieldAcceptTerms]),
		SubscribeUpdates: parseFlag(form.Fields[FieldSubscribeUpdates]),
		Status:           StatusPending,
	}

	if _, err := mergeNominee(&member.Nominee, nomineeInput); err != nil {
		return nil, err
	}
	if err := applyFamilyMembers(&member, form); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmailOrPhone(ctx, category, email, phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	member.PasswordHash = string(hash)

	if err := s.attachFiles(ctx, &member, form.Files); err != nil {
		return nil, err
	}

	now := s.now()
	member.CreatedAt = now
	member.UpdatedAt = now
	if err := s.repo.Create(ctx, &member); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(member.ID, string(category))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if s.notifier != nil {
		err := s.notifier.MemberRegistered(ctx, member)
		s.log.InternalError("members.register: schedule welcome notification", err, "member_id", member.ID)
	}

	return &Session{Member: &member, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, category Category, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	member, err := s.repo.GetByEmail(ctx, category, email)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(member.ID, string(category))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &Session{Member: member, Token: token}, nil
}

func (s *Service) List(ctx context.Context, category Category, filter ListFilter) ([]Member, error) {
	members, err := s.repo.List(ctx, category, filter)
	if err != nil {
		return nil, err
	}
	if members == nil {
		return []Member{}, nil
	}
	return members, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, category Category, id string) (*Member, error) {
	if !actor.CanAccess(category, id) {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, category, id)
}

func (s *Service) Approve(ctx context.Context, actor Actor, category Category, id, disease, message string) (*Member, error) {
	if s.statusRequiresAdmin && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	disease = strings.TrimSpace(disease)
	if disease == "" {
		return nil, invalid("Disease name is required for approval")
	}

	member, err := s.repo.GetByID(ctx, category, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	member.Status = StatusApproved
	member.ApprovedDisease = disease
	member.ApprovedMessage = strings.TrimSpace(message)
	member.ApprovedDate = &now
	member.UpdatedAt = now

	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *Service) MarkDeceased(ctx context.Context, actor Actor, category Category, id, reason, disease string) (*Member, error) {
	if s.statusRequiresAdmin && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	member, err := s.repo.GetByID(ctx, category, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	member.Status = StatusDeceased
	member.DeceasedReason = strings.TrimSpace(reason)
	member.DeceasedDisease = strings.TrimSpace(disease)
	member.DeceasedDate = &now
	member.UpdatedAt = now

	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Update applies a profile update to a copy of the stored member and saves it once.
// An error at any step leaves the stored record untouched.
func (s *Service) Update(ctx context.Context, actor Actor, category Category, id string, form Form) (*UpdateResult, error) {
	if !actor.CanAccess(category, id) {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, category, id)
	if err != nil {
		return nil, err
	}
	updated := *current

	changes, err := applySimpleFields(&updated, form)
	if err != nil {
		return nil, err
	}

	nomineeInput, err := form.object(FieldNominee)
	if err != nil {
		return nil, err
	}
	if nomineeInput != nil {
		if err := validateNomineeBanking(nomineeInput); err != nil {
			return nil, err
		}
		nomineeChanges, err := mergeNominee(&updated.Nominee, nomineeInput)
		if err != nil {
			return nil, err
		}
		changes = append(changes, nomineeChanges...)
	}

	familyChanges, err := mergeFamilyMembers(&updated, form)
	if err != nil {
		return nil, err
	}
	changes = append(changes, familyChanges...)

	if password := form.Fields[FieldPassword]; len(password) >= minPasswordLength {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = string(hash)
	}

	if err := s.attachFiles(ctx, &updated, form.Files); err != nil {
		return nil, err
	}

	updated.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, &updated); err != nil {
		return nil, err
	}

	if len(changes) > 0 && s.notifier != nil {
		err := s.notifier.MemberUpdated(ctx, updated, changes)
		s.log.InternalError("members.update: schedule update notification", err, "member_id", updated.ID)
	}

	if changes == nil {
		changes = []Change{}
	}
	return &UpdateResult{Member: &updated, Changes: changes}, nil
}

func applySimpleFields(m *Member, form Form) ([]Change, error) {
	var changes []Change

	assign := func(field string, value *string, next string) {
		if next == "" || next == *value {
			return
		}
		changes = append(changes, Change{Field: field, Old: *value, New: next})
		*value = next
	}

	assign(FieldName, &m.Name, form.text(FieldName))

	if raw := form.text(FieldAge); raw != "" {
		age, err := parseAge(FieldAge, raw)
		if err != nil {
			return nil, err
		}
		if formatAge(age) != formatAge(m.Age) {
			changes = append(changes, Change{Field: FieldAge, Old: formatAge(m.Age), New: formatAge(age)})
			m.Age = age
		}
	}

	assign(FieldSex, &m.Sex, form.text(FieldSex))
	assign(FieldQualification, &m.Qualification, form.text(FieldQualification))
	assign(FieldPhone, &m.Phone, form.text(FieldPhone))
	assign(FieldEmail, &m.Email, normalizeEmail(form.Fields[FieldEmail]))
	assign(FieldAlternateMobile, &m.AlternateMobile, form.text(FieldAlternateMobile))
	assign(FieldHouseAddress, &m.HouseAddress, form.text(FieldHouseAddress))
	assign(FieldOfficeAddress, &m.OfficeAddress, form.text(FieldOfficeAddress))

	return changes, nil
}

func applyFamilyMembers(m *Member, form Form) error {
	_, err := mergeFamilyMembers(m, form)
	return err
}

func mergeFamilyMembers(m *Member, form Form) ([]Change, error) {
	var changes []Change
	targets := []struct {
		field  string
		member *FamilyMember
	}{
		{FieldFamilyMember1, &m.FamilyMember1},
		{FieldFamilyMember2, &m.FamilyMember2},
	}
	for _, target := range targets {
		input, err := form.object(target.field)
		if err != nil {
			return nil, err
		}
		if input == nil {
			continue
		}
		merged, err := mergeFamilyMember(target.field, target.member, input)
		if err != nil {
			return nil, err
		}
		changes = append(changes, merged...)
	}
	return changes, nil
}

func (s *Service) attachFiles(ctx context.Context, m *Member, files map[string]storage.File) error {
	photo, hasPhoto := files[FieldPassportPhoto]
	certificate, hasCertificate := files[FieldCertificates]
	if !hasPhoto && !hasCertificate {
		return nil
	}
	if hasCertificate {
		if err := storage.CheckDocument(certificate.Name); err != nil {
			return uploadFailure(FieldCertificates, err)
		}
	}
	if s.uploader == nil {
		return &UploadError{Field: FieldPassportPhoto, Err: errors.New("storage is not configured")}
	}

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	if hasPhoto {
		object, err := s.uploader.UploadPhoto(ctx, m.Category.Path()+"/passports", photo)
		if err != nil {
			return uploadFailure(FieldPassportPhoto, err)
		}
		m.PassportPhoto = object.URL
		m.PassportPhotoPublicID = object.Key
	}

	if hasCertificate {
		object, err := s.uploader.UploadDocument(ctx, m.Category.Path()+"/certificates", certificate)
		if err != nil {
			return uploadFailure(FieldCertificates, err)
		}
		m.Certificates = object.URL
		m.CertificatesPublicID = object.Key
	}

	return nil
}

func uploadFailure(field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedFormat):
		return invalid(field + " must be a pdf, png, jpg or jpeg file")
	case errors.Is(err, storage.ErrInvalidImage):
		return invalid(field + " must be a valid image")
	default:
		return &UploadError{Field: field, Err: err}
	}
}
