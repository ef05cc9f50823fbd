package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"

	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/events"
)

// MessageReader is the part of *kafka.Reader the change feed needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ChangeFeedService applies log changes made by other clients and records every
// ended log in the analytics table.
type ChangeFeedService struct {
	Reader    MessageReader
	Store     *store.Store
	Analytics AnalyticsRecorder
	Origin    string
}

func NewChangeFeedService(r MessageReader, st *store.Store, analytics AnalyticsRecorder, origin string) *ChangeFeedService {
	return &ChangeFeedService{Reader: r, Store: st, Analytics: analytics, Origin: origin}
}

func (s *ChangeFeedService) StartConsuming(ctx context.Context) {
	hlog.Info("ChangeFeedService starting to consume log changes...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				hlog.Info("ChangeFeedService: context cancelled, stopping consumer.")
				return
			default:
				readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				msg, err := s.Reader.ReadMessage(readCtx)
				cancel()

				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if errors.Is(err, context.Canceled) {
					hlog.Info("ChangeFeedService: read context cancelled.")
					return
				}
				if errors.Is(err, io.EOF) {
					hlog.Info("ChangeFeedService: Kafka reader closed (EOF), stopping consumption.")
					return
				}
				if err != nil {
					hlog.Errorf("ChangeFeedService: error reading message: %v", err)
					time.Sleep(time.Second)
					continue
				}
				if err := s.HandleMessage(ctx, msg); err != nil {
					hlog.Warnf("ChangeFeedService: dropped message at partition %d offset %d: %v", msg.Partition, msg.Offset, err)
				}
			}
		}
	}()
}

// HandleMessage decodes one feed message. Changes this client published itself are
// already in the store and only skipped.
func (s *ChangeFeedService) HandleMessage(ctx context.Context, msg kafka.Message) error {
	payload, err := events.UnmarshalLogChange(msg.Value)
	if err != nil {
		return err
	}
	if payload.Origin == s.Origin {
		return nil
	}
	if err := s.Store.ApplyLogChange(store.LogChange{Kind: payload.Kind, Log: payload.Log}); err != nil {
		return fmt.Errorf("apply log %s from %s: %w", payload.Log.ID, payload.Origin, err)
	}
	hlog.CtxDebugf(ctx, "Applied %s log %s from %s", payload.Kind, payload.Log.ID, payload.Origin)

	if payload.Log.Running() || s.Analytics == nil {
		return nil
	}
	if err := s.Analytics.Record(ctx, payload.Log, payload.Category); err != nil {
		return fmt.Errorf("record analytics for log %s: %w", payload.Log.ID, err)
	}
	return nil
}

func (s *ChangeFeedService) Close() {
	if s.Reader != nil {
		hlog.Info("ChangeFeedService: closing Kafka reader.")
		if err := s.Reader.Close(); err != nil {
			hlog.Errorf("ChangeFeedService: close error: %v", err)
		}
	}
}
