package service

import (
	"blobvault/config"
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/context"
)

const announceInterval = 30 * time.Second

// RunPeerAnnouncer periodically announces this node to the peer API using a
// service-account token. Failures are logged and retried on the next tick.
// Returns when ctx is cancelled.
func RunPeerAnnouncer(ctx context.Context) {
	if !config.AppConfig.PeerEnabled {
		return
	}
	ticker := time.NewTicker(announceInterval)
	defer ticker.Stop()
	for {
		if err := announce(ctx); err != nil {
			log.Println("peer announce fail:", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func announce(ctx context.Context) error {
	token, err := ServiceAccountToken(ctx, config.AppConfig.AuthTenantClientID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{
		"host": config.AppConfig.Host,
		"port": config.AppConfig.Port,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.AppConfig.PeerAPIURI, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
