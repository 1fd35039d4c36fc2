package datamodel

import (
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/group"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&access.PermissionGroup{},
		&access.Permission{},
		&access.Role{},
		&user.Department{},
		&user.User{},
		&user.FavoriteUser{},
		&group.UserGroup{},
		&group.UserGroupMembership{},
		&message.Message{},
		&message.MessageRecipient{},
		&message.MessageStatusChange{},
		&message.Attachment{},
		&notification.Notification{},
		&personalmail.PersonalMail{},
		&personalmail.PersonalMailAttachment{},
		&audit.PermissionChange{},
		&audit.UserLoginLog{},
	}
}
