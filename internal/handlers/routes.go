package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cliptube/backend/internal/middleware"
)

// NewRouter wires every API route onto a chi router. Route groups mirror the
// resource layout under /api/v1 and pick their own authentication mode:
// RequireAuth for mutations and private views, OptionalAuth where anonymous
// access is allowed but a signed-in viewer changes the response.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Views: deps.Views, Tokens: deps.Tokens, Media: deps.Media}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Views: deps.Views, Media: deps.Media}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Views: deps.Views}
	likes := LikeHandler{Likes: deps.Likes, Views: deps.Views}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users, Views: deps.Views}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos}
	tweets := TweetHandler{Tweets: deps.Tweets}
	dashboard := DashboardHandler{Views: deps.Views}

	requireAuth := RequireAuth(deps.Users, deps.Tokens)
	optionalAuth := OptionalAuth(deps.Users, deps.Tokens)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", handle(health.Check))

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(deps.AuthLimiter, "auth"))
				r.Post("/register", handle(users.Register))
				r.Post("/login", handle(users.Login))
			})
			r.Post("/refresh-token", handle(users.Refresh))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", handle(users.Logout))
				r.Post("/change-password", handle(users.ChangePassword))
				r.Get("/current-user", handle(users.Current))
				r.Patch("/update-account", handle(users.UpdateAccount))
				r.Patch("/avatar", handle(users.UpdateAvatar))
				r.Patch("/cover-image", handle(users.UpdateCoverImage))
				r.Get("/watch-history", handle(users.WatchHistory))
			})

			r.With(requireAuth).Get("/c/{username}", handle(users.ChannelProfile))
		})

		r.Route("/videos", func(r chi.Router) {
			r.With(optionalAuth).Get("/", handle(videos.List))
			r.With(optionalAuth).Get("/{videoId}", handle(videos.Get))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handle(videos.Publish))
				r.Patch("/{videoId}", handle(videos.Update))
				r.Delete("/{videoId}", handle(videos.Delete))
				r.Patch("/toggle/publish/{videoId}", handle(videos.TogglePublish))
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{videoId}", handle(comments.ListForVideo))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{videoId}", handle(comments.Add))
				r.Patch("/c/{commentId}", handle(comments.Update))
				r.Delete("/c/{commentId}", handle(comments.Delete))
			})
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", handle(likes.ToggleVideo))
			r.Post("/toggle/c/{commentId}", handle(likes.ToggleComment))
			r.Post("/toggle/t/{tweetId}", handle(likes.ToggleTweet))
			r.Get("/videos", handle(likes.LikedVideos))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/c/{channelId}", handle(subscriptions.Toggle))
			r.Get("/c/{channelId}", handle(subscriptions.Subscribers))
			r.Get("/u/{subscriberId}", handle(subscriptions.SubscribedChannels))
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Get("/{playlistId}", handle(playlists.Get))
			r.Get("/user/{userId}", handle(playlists.ListByUser))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handle(playlists.Create))
				r.Patch("/{playlistId}", handle(playlists.Update))
				r.Delete("/{playlistId}", handle(playlists.Delete))
				r.Patch("/add/{videoId}/{playlistId}", handle(playlists.AddVideo))
				r.Patch("/remove/{videoId}/{playlistId}", handle(playlists.RemoveVideo))
			})
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Get("/user/{userId}", handle(tweets.ListByUser))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handle(tweets.Create))
				r.Patch("/{tweetId}", handle(tweets.Update))
				r.Delete("/{tweetId}", handle(tweets.Delete))
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/stats", handle(dashboard.Stats))
			r.Get("/videos/{userId}", handle(dashboard.Videos))
		})
	})

	return r
}
