package worker

import (
	"blobvault/config"
	"blobvault/internal/mq"
	"blobvault/internal/repo"
	"blobvault/internal/storage"
	"blobvault/model"
	"blobvault/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	Blob     string    `json:"blob"`
	Attempt  int       `json:"attempt"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// RunGCWorker consumes blob removal tasks from RabbitMQ.
func RunGCWorker(ctx context.Context) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(
		mq.QueueTasks,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.GCWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("gc worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleRemovalMessage(ctx, client, d)
			}(delivery)
		}
	}
}

func handleRemovalMessage(ctx context.Context, client *mq.Client, delivery amqp.Delivery) {
	var msg mq.BlobRemovalTask
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		log.Printf("gc worker: invalid message: %v", err)
		_ = delivery.Ack(false)
		return
	}

	if err := removeBlob(ctx, msg.Blob); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = delivery.Nack(false, true)
			return
		}
		if err := scheduleRetry(ctx, client, msg, err); err != nil {
			log.Printf("gc worker: retry schedule failed: %v", err)
			_ = delivery.Nack(false, true)
			return
		}
	}

	_ = delivery.Ack(false)
}

// removeBlob deletes the blob. A blob that is already gone counts as success
// so redelivered tasks converge.
func removeBlob(ctx context.Context, blob string) error {
	err := storage.Default.Remove(ctx, blob)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func scheduleRetry(ctx context.Context, client *mq.Client, msg mq.BlobRemovalTask, procErr error) error {
	maxRetry := config.AppConfig.GCRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return markFailed(ctx, client, msg, procErr)
	}

	delay := pickRetryDelay(nextAttempt, config.AppConfig.GCRetryDelays)
	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return client.PublishRetry(ctx, body, delay)
}

func markFailed(ctx context.Context, client *mq.Client, msg mq.BlobRemovalTask, procErr error) error {
	dlq := dlqMessage{
		Blob:     msg.Blob,
		Attempt:  msg.Attempt,
		Error:    procErr.Error(),
		FailedAt: time.Now(),
	}
	body, err := json.Marshal(dlq)
	if err != nil {
		return err
	}
	if err := client.PublishDLQ(ctx, body); err != nil {
		log.Printf("gc worker: dlq publish failed: %v", err)
	}
	if to := config.AppConfig.AlertEmail; to != "" {
		mailBody := fmt.Sprintf("blob %s could not be removed after %d attempts: %v", msg.Blob, msg.Attempt, procErr)
		if err := utils.SendAlertMail(to, "blob gc failure", mailBody); err != nil {
			log.Printf("gc worker: alert mail failed: %v", err)
		}
	}
	return nil
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}

// RunSweep periodically reconciles the blob store against the metadata
// table and removes orphan blobs. A blob must stay orphaned for the whole
// grace window before it is deleted, which keeps the sweep from racing an
// in-flight create between its blob write and its row insert.
func RunSweep(ctx context.Context) {
	interval := config.AppConfig.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	firstSeen := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sweepOnce(ctx, firstSeen); err != nil {
				log.Println("gc sweep fail:", err)
			}
		}
	}
}

func sweepOnce(ctx context.Context, firstSeen map[string]time.Time) error {
	blobs, err := storage.Default.List(ctx)
	if err != nil {
		return err
	}

	var keys []string
	if err := repo.Db.Model(&model.Object{}).Pluck("object_key", &keys).Error; err != nil {
		return err
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		referenced[storage.BlobName(key)] = struct{}{}
	}

	burst := config.AppConfig.SweepBurst
	if burst <= 0 {
		burst = 1
	}
	var limiter *rate.Limiter
	if config.AppConfig.SweepRate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	} else {
		limiter = rate.NewLimiter(rate.Limit(config.AppConfig.SweepRate), burst)
	}

	now := time.Now()
	removed := 0
	orphaned := make(map[string]struct{})
	for _, blob := range blobs {
		if _, ok := referenced[blob]; ok {
			continue
		}
		orphaned[blob] = struct{}{}
		seen, ok := firstSeen[blob]
		if !ok {
			firstSeen[blob] = now
			continue
		}
		if now.Sub(seen) < config.AppConfig.SweepGrace {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := removeBlob(ctx, blob); err != nil {
			log.Printf("gc sweep: remove %s failed: %v", blob, err)
			continue
		}
		removed++
		delete(firstSeen, blob)
	}

	// forget blobs that regained a row or were removed out of band
	for blob := range firstSeen {
		if _, ok := orphaned[blob]; !ok {
			delete(firstSeen, blob)
		}
	}

	if removed > 0 {
		log.Printf("gc sweep: removed %d orphan blobs", removed)
		if to := config.AppConfig.AlertEmail; to != "" {
			mailBody := fmt.Sprintf("sweep removed %d orphan blobs, %d still in grace", removed, len(firstSeen))
			if err := utils.SendAlertMail(to, "blob gc sweep", mailBody); err != nil {
				log.Printf("gc sweep: alert mail failed: %v", err)
			}
		}
	}
	return nil
}
