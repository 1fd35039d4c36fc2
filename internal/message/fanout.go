package message

import (
	"context"
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
)

// RecipientSpec says who a new message goes to. Only the field matching Type
// is read.
type RecipientSpec struct {
	Type     string
	Username string
	GroupID  int64
	UserIDs  []int64
}

type UserDirectory interface {
	// ActiveUserID returns 0 when no active user has the username.
	ActiveUserID(ctx context.Context, username string) (int64, error)
	// FilterActive keeps the ids of existing active users, in input order.
	FilterActive(ctx context.Context, ids []int64) ([]int64, error)
}

type GroupResolver interface {
	EligibleMembers(ctx context.Context, p *user.Principal, groupID int64) ([]int64, error)
}

type FanOut struct {
	users  UserDirectory
	groups GroupResolver
}

func NewFanOut(users UserDirectory, groups GroupResolver) *FanOut {
	return &FanOut{users: users, groups: groups}
}

// Resolve turns spec into distinct recipient ids in a stable order, never
// including the sender. An empty result is a validation error.
func (f *FanOut) Resolve(ctx context.Context, spec RecipientSpec, sender *user.Principal) ([]int64, error) {
	var candidates []int64

	switch spec.Type {
	case RecipientTypeUser, "":
		username := strings.TrimSpace(spec.Username)
		if username == "" {
			return nil, internal.NewValidationFieldError("recipient", "recipient is required", internal.ErrCodeNoRecipients)
		}
		id, err := f.users.ActiveUserID(ctx, username)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up recipient", err)
		}
		if id == 0 {
			return nil, ErrRecipientNotFound.WithDetails(map[string]string{"recipient": username})
		}
		candidates = []int64{id}

	case RecipientTypeGroup:
		if spec.GroupID <= 0 {
			return nil, internal.NewValidationFieldError("group_id", "group_id is required", internal.ErrCodeNoRecipients)
		}
		ids, err := f.groups.EligibleMembers(ctx, sender, spec.GroupID)
		if err != nil {
			return nil, err
		}
		candidates = ids

	case RecipientTypeMultiple:
		if len(spec.UserIDs) == 0 {
			return nil, internal.NewValidationFieldError("recipient_ids", "recipient_ids is required", internal.ErrCodeNoRecipients)
		}
		ids, err := f.users.FilterActive(ctx, spec.UserIDs)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up recipients", err)
		}
		candidates = ids

	default:
		return nil, internal.NewValidationFieldError("recipient_type", "recipient_type must be one of: user, group, multiple", internal.ErrCodeInvalidValue)
	}

	resolved := distinctExcluding(candidates, sender.ID)
	if len(resolved) == 0 {
		return nil, ErrNoRecipients
	}
	return resolved, nil
}

func distinctExcluding(ids []int64, exclude int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
