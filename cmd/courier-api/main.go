// README: Entry point; loads config, wires services, starts queue consumers and HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"courier/internal/config"
	httptransport "courier/internal/http"
	"courier/internal/infra"
	"courier/internal/modules/chat"
	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	sqsClient, err := infra.NewSQS(ctx, cfg.SQS.Region)
	if err != nil {
		log.Fatalf("sqs init: %v", err)
	}

	statusPublisher := queue.NewPublisher(sqsClient, cfg.SQS.StatusQueueURL)
	chatPublisher := queue.NewPublisher(sqsClient, cfg.SQS.ChatQueueURL)

	chatStore := chat.NewStore(redisClient)
	chatSvc := chat.NewService(chatStore, chatPublisher)

	orderStore := order.NewStore(redisClient)
	orderSvc := order.NewService(orderStore, chatSvc, statusPublisher)

	locationStore := location.NewStore(redisClient)
	locationSvc := location.NewService(locationStore)

	statusConsumer := queue.NewConsumer(sqsClient, cfg.SQS.StatusQueueURL,
		cfg.Consumer.Workers, cfg.Consumer.WaitSeconds, cfg.Consumer.BatchSize, orderSvc.HandleMessage)
	chatConsumer := queue.NewConsumer(sqsClient, cfg.SQS.ChatQueueURL,
		cfg.Consumer.Workers, cfg.Consumer.WaitSeconds, cfg.Consumer.BatchSize, chatSvc.HandleMessage)

	go statusConsumer.Run(ctx)
	go chatConsumer.Run(ctx)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Order:    orderSvc,
		Chat:     chatSvc,
		Location: locationSvc,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("courier-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
