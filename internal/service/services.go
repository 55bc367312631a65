package service

import (
	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/media"
	"github.com/dom/watchnest/internal/repository"
)

type Services struct {
	Auth         *AuthService
	User         *UserService
	Video        *VideoService
	Comment      *CommentService
	Subscription *SubscriptionService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, uploader media.Uploader, notifier Notifier, logger *log.Logger) *Services {
	return &Services{
		Auth:         NewAuthService(repos.User, repos.Session, cfg, logger),
		User:         NewUserService(repos.User, repos.Video, repos.Subscription, uploader),
		Video:        NewVideoService(repos.Video, repos.Comment, repos.User, uploader, logger),
		Comment:      NewCommentService(repos.Comment, repos.Video, notifier),
		Subscription: NewSubscriptionService(repos.User, repos.Subscription, notifier),
	}
}
