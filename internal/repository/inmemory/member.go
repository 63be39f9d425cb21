package inmemory

import (
	"context"
	"sort"
	"sync"

	memberdomain "welfare-app-go/internal/domain/member"
)

// MemberRepository keeps members in process memory. It enforces the same
// per category email and phone uniqueness as the database indexes.
type MemberRepository struct {
	mu    sync.RWMutex
	items map[string]memberdomain.Member
}

func NewMemberRepository() *MemberRepository {
	return &MemberRepository{
		items: make(map[string]memberdomain.Member),
	}
}

func (r *MemberRepository) Create(_ context.Context, member *memberdomain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[member.ID]; ok {
		return memberdomain.ErrConflict
	}
	if r.taken(member.Category, member.ID, member.Email, member.Phone) {
		return memberdomain.ErrConflict
	}
	r.items[member.ID] = cloneMember(*member)
	return nil
}

func (r *MemberRepository) Save(_ context.Context, member *memberdomain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[member.ID]
	if !ok || existing.Category != member.Category {
		return memberdomain.ErrMemberNotFound
	}
	if r.taken(member.Category, member.ID, member.Email, member.Phone) {
		return memberdomain.ErrConflict
	}

	saved := cloneMember(*member)
	saved.CreatedAt = existing.CreatedAt
	r.items[member.ID] = saved
	return nil
}

func (r *MemberRepository) GetByID(_ context.Context, category memberdomain.Category, id string) (*memberdomain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok || item.Category != category {
		return nil, memberdomain.ErrMemberNotFound
	}
	out := cloneMember(item)
	return &out, nil
}

func (r *MemberRepository) GetByEmail(_ context.Context, category memberdomain.Category, email string) (*memberdomain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Category == category && item.Email == email {
			out := cloneMember(item)
			return &out, nil
		}
	}
	return nil, memberdomain.ErrMemberNotFound
}

func (r *MemberRepository) ExistsByEmailOrPhone(_ context.Context, category memberdomain.Category, email, phone string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.taken(category, "", email, phone), nil
}

func (r *MemberRepository) List(_ context.Context, category memberdomain.Category, filter memberdomain.ListFilter) ([]memberdomain.Member, error) {
	r.mu.RLock()
	out := make([]memberdomain.Member, 0, len(r.items))
	for _, item := range r.items {
		if item.Category != category {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, cloneMember(item))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// taken reports whether another member of the category already uses email or phone.
// Callers hold the lock.
func (r *MemberRepository) taken(category memberdomain.Category, exceptID, email, phone string) bool {
	for id, item := range r.items {
		if id == exceptID || item.Category != category {
			continue
		}
		if (email != "" && item.Email == email) || (phone != "" && item.Phone == phone) {
			return true
		}
	}
	return false
}

func cloneMember(m memberdomain.Member) memberdomain.Member {
	m.Age = cloneInt(m.Age)
	m.Nominee.Age = cloneInt(m.Nominee.Age)
	m.FamilyMember1.Age = cloneInt(m.FamilyMember1.Age)
	m.FamilyMember2.Age = cloneInt(m.FamilyMember2.Age)
	if m.ApprovedDate != nil {
		t := *m.ApprovedDate
		m.ApprovedDate = &t
	}
	if m.DeceasedDate != nil {
		t := *m.DeceasedDate
		m.DeceasedDate = &t
	}
	return m
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
