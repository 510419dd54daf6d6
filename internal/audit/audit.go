package audit

import (
	"context"
	"fmt"

	"github.com/khanghh/alumnet/model"
)

const (
	ActionAdminLogin          = "admin_login"
	ActionBanUser             = "ban_user"
	ActionUnbanUser           = "unban_user"
	ActionBanExpired          = "ban_expired"
	ActionApproveVerification = "approve_verification"
	ActionRejectVerification  = "reject_verification"
	ActionGenerateCodes       = "generate_codes"
	ActionDeleteExpiredCodes  = "delete_expired_codes"
	ActionCreateEvent         = "create_event"
	ActionUploadNewsletter    = "upload_newsletter"
)

const (
	TargetUser             = "user"
	TargetVerification     = "verification"
	TargetVerificationCode = "verification_code"
	TargetPost             = "post"
	TargetEvent            = "event"
	TargetNewsletter       = "newsletter"
)

// Actor identifies who performs an operation. It is passed explicitly into
// every use case instead of being read from request state.
type Actor struct {
	ID    uint
	Email string
	Role  model.Role
	IP    string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// SystemActor is used for actions taken without an admin, such as lifting a lapsed ban.
var SystemActor = Actor{Email: "system"}

// ModerationAction names the action of a review transition on a content kind,
// e.g. approve_post or reject_event.
func ModerationAction(verb string, targetType string) string {
	return verb + "_" + targetType
}

type Entry struct {
	Action     string
	TargetType string
	TargetID   any
	Details    map[string]any
}

// Record appends one activity row using repo, which should be bound to the
// caller's transaction so the row commits or rolls back with the action itself.
func Record(ctx context.Context, repo ActivityRepository, actor Actor, entry Entry) error {
	return repo.Create(ctx, &model.AdminActivity{
		AdminID:    actor.ID,
		AdminEmail: actor.Email,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   fmt.Sprint(entry.TargetID),
		Details:    entry.Details,
		IP:         actor.IP,
	})
}
