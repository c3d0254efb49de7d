package redis_test

import (
	"context"
	"testing"

	paymentredis "shaadibiyah/internal/payment/redis"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisIntegration exercises the payment lock against a real Redis container
func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port.Port(),
		Password: "",
		DB:       0,
	})

	locks := paymentredis.NewRedis(client)

	bookingID := "booking-integration-1"
	paymentID := "payment-integration-1"

	available, err := locks.CheckBookingAvailability(bookingID)
	require.NoError(t, err)
	assert.True(t, available, "Expected booking to be free before locking")

	locked, err := locks.LockBooking(bookingID, paymentID)
	require.NoError(t, err)
	assert.True(t, locked, "Expected booking to be lockable")

	// A second payment must not be able to take the same lock
	locked, err = locks.LockBooking(bookingID, "another-payment-id")
	require.NoError(t, err)
	assert.False(t, locked, "Expected booking to be already locked")

	// Only the holder may release
	err = locks.UnlockBooking(bookingID, "another-payment-id")
	require.NoError(t, err)
	available, err = locks.CheckBookingAvailability(bookingID)
	require.NoError(t, err)
	assert.False(t, available, "Expected lock to survive a release by a non-holder")

	err = locks.UnlockBooking(bookingID, paymentID)
	require.NoError(t, err)

	locked, err = locks.LockBooking(bookingID, paymentID)
	require.NoError(t, err)
	assert.True(t, locked, "Expected booking to be lockable after unlock")
}
