package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/entity"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const defaultPollInterval = 30 * time.Second

// claimScript removes one due registration and returns its payload in a
// single step. Rechecking the score inside the script makes a
// concurrent replace win: a slot rescheduled to the future after the
// sweep read it is left untouched.
var claimScript = redis.NewScript(`
local score = redis.call("ZSCORE", KEYS[1], ARGV[1])
if (not score) or (tonumber(score) > tonumber(ARGV[2])) then
	return false
end
local payload = redis.call("HGET", KEYS[2], ARGV[1])
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[2], ARGV[1])
if not payload then
	return false
end
return payload
`)

// RedisRegistry persists pending alarms in Redis: a sorted set maps
// slot to fire time and a hash keeps the event payload per slot. Because
// the registrations live outside process memory, an alarm scheduled
// before a crash still fires after the service comes back up.
type RedisRegistry struct {
	client       *redis.Client
	indexKey     string
	payloadKey   string
	pollInterval time.Duration
	wake         chan struct{}
}

type RedisRegistryConfig struct {
	KeyPrefix    string
	PollInterval time.Duration
}

func NewRedisRegistry(client *redis.Client, cfg RedisRegistryConfig) *RedisRegistry {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "reminder_engine"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	return &RedisRegistry{
		client:       client,
		indexKey:     cfg.KeyPrefix + ":alarms",
		payloadKey:   cfg.KeyPrefix + ":alarms:payload",
		pollInterval: cfg.PollInterval,
		wake:         make(chan struct{}, 1),
	}
}

func (r *RedisRegistry) Schedule(ctx context.Context, req entity.TimerRequest) error {
	payload, err := json.Marshal(req.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal fire event: %w", err)
	}

	member := strconv.FormatInt(req.Slot, 10)
	score := float64(req.FireAt.UnixNano()) / 1e9

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, r.indexKey, &redis.Z{Score: score, Member: member})
	pipe.HSet(ctx, r.payloadKey, member, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register alarm for slot %d: %w", req.Slot, err)
	}

	r.poke()
	return nil
}

func (r *RedisRegistry) Cancel(ctx context.Context, slot int64) error {
	member := strconv.FormatInt(slot, 10)

	pipe := r.client.Pipeline()
	pipe.ZRem(ctx, r.indexKey, member)
	pipe.HDel(ctx, r.payloadKey, member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cancel alarm for slot %d: %w", slot, err)
	}

	r.poke()
	return nil
}

func (r *RedisRegistry) poke() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run delivers due alarms to handler until ctx is done. The loop arms a
// single timer for the earliest pending alarm; the fallback ticker
// covers registrations written by other instances sharing the keys.
func (r *RedisRegistry) Run(ctx context.Context, handler Handler) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		if err := r.deliverDue(ctx, handler); err != nil {
			logrus.Errorf("Failed to deliver due alarms: %v", err)
		}

		next, ok, err := r.earliest(ctx)
		if err != nil {
			logrus.Errorf("Failed to read earliest alarm: %v", err)
			ok = false
		}
		if ok {
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			if ok && !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()
		case <-r.wake:
			if ok && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-ticker.C:
			if ok && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
	}
}

func (r *RedisRegistry) earliest(ctx context.Context) (time.Time, bool, error) {
	entries, err := r.client.ZRangeWithScores(ctx, r.indexKey, 0, 0).Result()
	if err != nil {
		return time.Time{}, false, err
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}

	sec, frac := int64(entries[0].Score), entries[0].Score-float64(int64(entries[0].Score))
	return time.Unix(sec, int64(frac*1e9)), true, nil
}

func (r *RedisRegistry) deliverDue(ctx context.Context, handler Handler) error {
	now := float64(time.Now().UnixNano()) / 1e9

	members, err := r.client.ZRangeByScore(ctx, r.indexKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get due alarms: %w", err)
	}

	for _, member := range members {
		// Claim removes the registration before handling: each alarm
		// fires at most once even if the handler itself fails.
		payload, ok, err := r.claim(ctx, member, now)
		if err != nil {
			return fmt.Errorf("failed to claim due alarm for slot %s: %w", member, err)
		}
		if !ok {
			// Cancelled or rescheduled since the range read.
			continue
		}

		var event entity.FireEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			logrus.Errorf("Dropping alarm with corrupted payload for slot %s: %v", member, err)
			continue
		}

		if err := handler(ctx, event); err != nil {
			logrus.Errorf("Failed to handle fired alarm for slot %s: %v", member, err)
		}
	}

	return nil
}

// claim atomically removes the member's registration and returns its
// payload, but only while the registration is still due at now. A slot
// that was replaced with a future fire time since the sweep read it is
// not claimed.
func (r *RedisRegistry) claim(ctx context.Context, member string, now float64) (string, bool, error) {
	res, err := claimScript.Run(ctx, r.client, []string{r.indexKey, r.payloadKey}, member, now).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	payload, ok := res.(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected claim result type %T", res)
	}
	return payload, true, nil
}
