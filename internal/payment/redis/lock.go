package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis guards against two charges racing on the same booking. A lock is
// held for the duration of one Stripe round trip and expires on its own if
// the holder dies mid flight.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getPaymentLockDuration returns the payment lock duration from environment variables or the default value
func (r *Redis) getPaymentLockDuration() time.Duration {
	defaultDuration := 5 * time.Minute

	lockTTLStr := os.Getenv("PAYMENT_LOCK_TTL_MINUTES")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLMin, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid PAYMENT_LOCK_TTL_MINUTES value '" + lockTTLStr + "', using default 5 minutes")
		return defaultDuration
	}

	r.Logger.Println(fmt.Sprintf("REDIS: Using payment lock duration of %d minutes from environment", lockTTLMin))
	return time.Duration(lockTTLMin) * time.Minute
}

// CheckBookingAvailability reports whether the booking is free to charge
// (not locked) without taking the lock
func (r *Redis) CheckBookingAvailability(bookingID string) (bool, error) {
	key := "payment_lock:" + bookingID
	_, err := r.Client.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// LockBooking takes the charge lock for a booking on behalf of a payment
func (r *Redis) LockBooking(bookingID, paymentID string) (bool, error) {
	key := "payment_lock:" + bookingID
	lockDuration := r.getPaymentLockDuration()
	ok, err := r.Client.SetNX(context.Background(), key, paymentID, lockDuration).Result()
	return ok, err
}

// UnlockBooking releases the charge lock, but only if this payment holds it
func (r *Redis) UnlockBooking(bookingID, paymentID string) error {
	ctx := context.Background()
	key := fmt.Sprintf("payment_lock:%s", bookingID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val == paymentID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
