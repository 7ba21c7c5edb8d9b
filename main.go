package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/db"
	"github.com/nanumsa/server/internal/geocode"
	"github.com/nanumsa/server/internal/middleware"
	"github.com/nanumsa/server/internal/search"
	"github.com/nanumsa/server/internal/secrets"
	"github.com/nanumsa/server/internal/share"
	"github.com/nanumsa/server/internal/verify"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

// loadSettings merges the named secret over the environment. Keys
// missing from the secret store fall back to env vars so local runs
// work from .env.local alone.
func loadSettings(ctx context.Context) func(key string) string {
	values := map[string]string{}

	provider, err := secrets.FromEnv(ctx)
	if err != nil {
		log.Println("secret store unavailable, using env only: ", err)
	} else {
		name := os.Getenv("SECRET_NAME")
		if name == "" {
			name = "nanumsa/server"
		}
		if fetched, err := provider.Get(ctx, name); err != nil {
			log.Println("secret fetch failed, using env only: ", err)
		} else {
			values = fetched
		}
	}

	return func(key string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return os.Getenv(key)
	}
}

func main() {
	_ = godotenv.Load(".env.local")
	ctx := context.Background()

	setting := loadSettings(ctx)

	dsn := setting("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			setting("DB_HOST"), setting("DB_PORT"), setting("DB_USER"),
			setting("DB_PASSWORD"), setting("DB_NAME"))
	}
	db.Connect(dsn)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init(auth.SocialConfig{
		NaverClientID:     setting("NAVER_CLIENT_ID"),
		NaverClientSecret: setting("NAVER_CLIENT_SECRET"),
		KakaoAdminKey:     setting("KAKAO_ADMIN_KEY"),
	})
	share.Init()
	search.Init()
	verify.Init(verify.MailConfig{
		Host:     setting("SMTP_HOST"),
		Port:     setting("SMTP_PORT"),
		Username: setting("SMTP_USERNAME"),
		Password: setting("SMTP_PASSWORD"),
		From:     setting("SMTP_FROM"),
	}, setting("VERIFY_NOTIFY_URL"))
	geocode.Init(geocode.Config{
		JusoAPIKey:   setting("JUSO_API_KEY"),
		KakaoRESTKey: setting("KAKAO_REST_KEY"),
	}, setting("REDIS_URL"))

	// Deleting an account strips its tag from every listing it
	// administered. The hook lives here to keep auth from importing
	// share.
	auth.SetAdminCascade(share.DefaultStore)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RequestLogger)
	r.Get("/", RootHandler)

	auth.SetupRoutes(r)
	share.SetupRoutes(r)
	search.SetupRoutes(r)
	verify.SetupRoutes(r)
	geocode.SetupRoutes(r)

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
