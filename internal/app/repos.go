package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
	"github.com/yungbote/knowledgebase-backend/internal/repos"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Topic     repos.TopicRepo
	Mindmap   repos.MindmapRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Topic:     repos.NewTopicRepo(db, log),
		Mindmap:   repos.NewMindmapRepo(db, log),
	}
}
