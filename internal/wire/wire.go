package wire

import (
	"Parlor/internal/api"
	"Parlor/internal/api/config"
	"Parlor/internal/api/handler"
	"Parlor/internal/job"
	"Parlor/internal/pkg/cron"
	"Parlor/internal/pkg/kafka"
	"Parlor/internal/pkg/minio"
	"Parlor/internal/pkg/redis"
	"Parlor/internal/repository"
	"Parlor/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	TaskProducer *kafka.TaskProducer
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	memberRepo := repository.NewRoomMemberRepo(db)
	roomMessageRepo := repository.NewRoomMessageRepo(db)
	invitationRepo := repository.NewInvitationRepo(db)
	conversationRepo := repository.NewConversationRepo(db)
	directMessageRepo := repository.NewDirectMessageRepo(db)

	taskProducer, err := kafka.NewTaskProducer(cfg)
	if err != nil {
		return nil, err
	}
	notifier := redis.NewNotifier()
	storage := minio.NewStorage()
	mediaTemp := redis.NewMediaTempStore()

	mediaService := service.NewMediaService(storage, mediaTemp)
	userService := service.NewUserService(userRepo, mediaService)
	roomService := service.NewRoomService(roomRepo, memberRepo, userRepo, taskProducer)
	roomMessageService := service.NewRoomMessageService(roomRepo, memberRepo, roomMessageRepo, mediaService)
	invitationService := service.NewInvitationService(invitationRepo, roomRepo, memberRepo, userRepo, notifier)
	directMessageService := service.NewDirectMessageService(conversationRepo, directMessageRepo, userRepo, notifier, mediaService)

	handlers := &api.HandlersGroup{
		TokenChecker:         userService,
		UserHandler:          handler.NewUserHandler(userService),
		RoomHandler:          handler.NewRoomHandler(roomService),
		RoomMessageHandler:   handler.NewRoomMessageHandler(roomMessageService),
		InvitationHandler:    handler.NewInvitationHandler(invitationService),
		DirectMessageHandler: handler.NewDirectMessageHandler(directMessageService),
		MediaHandler:         handler.NewMediaHandler(mediaService),
		WSHandler:            handler.NewWsHandler(userService),
	}
	router := api.SetupRouter(handlers)

	roomTaskHandler := kafka.NewRoomTaskHandler(job.NewRoomRelabelJob(roomRepo))
	kafkaMgr, err := kafka.NewConsumerManager(cfg, roomTaskHandler)
	if err != nil {
		_ = taskProducer.Close()
		return nil, err
	}

	cronMgr := cron.NewCronManager(
		job.NewInvitationExpireJob(invitationService),
		job.NewMediaCleanupJob(storage, mediaTemp),
	)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		TaskProducer: taskProducer,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
