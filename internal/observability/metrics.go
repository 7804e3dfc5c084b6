package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OAuthLogins counts completed OAuth callback flows by provider and outcome.
	OAuthLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banana_oauth_logins_total",
		Help: "Total number of OAuth callback flows by provider and result",
	}, []string{"provider", "result"})

	// UsersCreated counts first-login user registrations by provider.
	UsersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banana_users_created_total",
		Help: "Total number of users created on first social login",
	}, []string{"provider"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banana_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ImageUploads counts image upload attempts by outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banana_image_uploads_total",
		Help: "Total number of image uploads by result",
	}, []string{"result"})
)
