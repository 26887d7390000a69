package main

import (
	bookinghandler "tourdesk/internal/bookings/handler"
	bookingrepository "tourdesk/internal/bookings/repository"
	bookingservice "tourdesk/internal/bookings/service"
	bookingvalidator "tourdesk/internal/bookings/validator"
	journeyhandler "tourdesk/internal/journeys/handler"
	journeyrepository "tourdesk/internal/journeys/repository"
	journeyservice "tourdesk/internal/journeys/service"
	journeyvalidator "tourdesk/internal/journeys/validator"
	providerhandler "tourdesk/internal/providers/handler"
	providerrepository "tourdesk/internal/providers/repository"
	providerservice "tourdesk/internal/providers/service"
	providervalidator "tourdesk/internal/providers/validator"
	userhandler "tourdesk/internal/users/handler"
	userrepository "tourdesk/internal/users/repository"
	userservice "tourdesk/internal/users/service"
	uservalidator "tourdesk/internal/users/validator"
	"tourdesk/pkg/app"
	"tourdesk/pkg/config"
	"tourdesk/pkg/events"
	"tourdesk/pkg/kafka"
	kafkaconfig "tourdesk/pkg/kafka/config"
)

const ServiceName = "tourdesk"

func main() {
	cfg := config.Load(ServiceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	cfg.SetMongo()

	serverApp := app.NewApplication()

	publisher := initPublisher(cfg, serverApp)
	userService, journeyService, providerService, bookingService := initServices(cfg, publisher)

	serverApp.SetApp(cfg,
		providerhandler.NewProviderHandler(providerService, cfg.Log),
		journeyhandler.NewJourneyHandler(journeyService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		userhandler.NewUserHandler(userService, cfg.Log),
	)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if cfg.EventsTopic == "" {
		cfg.Log.Info("Event publishing disabled, no topic configured")
		return events.Noop{}
	}

	kafkaCfg := kafkaconfig.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Event publishing enabled", "topic", cfg.EventsTopic)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}

func initServices(cfg *config.Config, publisher events.Publisher) (
	userservice.UserService,
	journeyservice.JourneyService,
	providerservice.ProviderService,
	bookingservice.BookingService,
) {
	userRepo := userrepository.NewMongoUserRepository(cfg)
	userService := userservice.NewUserService(
		userRepo,
		uservalidator.NewUserValidator(cfg.Log),
		publisher,
		cfg,
	)

	journeyRepo := journeyrepository.NewMongoJourneyRepository(cfg)
	bookingRepo := bookingrepository.NewMongoBookingRepository(cfg)

	journeyService := journeyservice.NewJourneyService(
		journeyRepo,
		userService,
		bookingRepo,
		journeyvalidator.NewJourneyValidator(cfg.Log),
		publisher,
		cfg,
	)

	providerRepo := providerrepository.NewMongoProviderRepository(cfg)
	providerService := providerservice.NewProviderService(
		providerRepo,
		journeyRepo,
		providervalidator.NewProviderValidator(cfg.Log),
		publisher,
		cfg,
	)

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		journeyService,
		userService,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return userService, journeyService, providerService, bookingService
}
