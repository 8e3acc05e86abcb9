package listeners

import (
	"WildVoice/internal/models"
	"WildVoice/pkg/config"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/notification"
	"WildVoice/pkg/util"

	"go.uber.org/zap"
)

// InitUserListeners 注册用户相关的信号监听器
func InitUserListeners() {
	// 新用户创建后异步发送欢迎邮件
	util.Sig().Connect(models.SigUserCreate, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok || user.Email == "" {
			return
		}

		go func() {
			err := notification.NewMailNotification(config.GlobalConfig.Mail).SendWelcomeEmail(
				user.Email,
				user.DisplayName,
				config.GlobalConfig.SiteURL,
			)
			if err != nil {
				logger.Warn("send mail failed", zap.Error(err))
			}
		}()
	})
}
