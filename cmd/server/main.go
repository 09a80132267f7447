package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	config "contentfactory/configs"
	"contentfactory/internal/api/handlers"
	"contentfactory/internal/api/middleware"
	"contentfactory/internal/repository"
	"contentfactory/internal/scheduler"
	"contentfactory/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Static("/uploads", cfg.UploadDir)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	networkRepo := repository.NewSocialNetworkRepository(db)
	planRepo := repository.NewContentPlanRepository(db)
	postRepo := repository.NewPostRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	dispatcher := service.NewWebhookDispatcher()
	mediaStorage := service.NewMediaStorage(*cfg)
	mediaService := service.NewMediaService(mediaStorage)
	authService := service.NewAuthService(*cfg, userRepo)
	projectService := service.NewProjectService(projectRepo, networkRepo, planRepo, userRepo)
	postService := service.NewPostService(postRepo)
	generatorService := service.NewGeneratorService(planRepo, networkRepo, postRepo, dispatcher, mediaService)

	postScheduler := scheduler.New(postRepo, dispatcher)
	if cfg.SchedulerAutostart {
		postScheduler.Start()
	}

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(authService)
	app.Post("/api/auth/login", auth.Login)

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "error", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/me", auth.Me)

	project := handlers.NewProjectHandler(projectService)
	api.Get("/projects", project.ListProjects)
	api.Post("/projects", project.CreateProject)
	api.Get("/projects/:id", project.GetProject)
	api.Post("/projects/:id/social-networks", project.AddSocialNetwork)
	api.Put("/social-networks/:networkId", project.UpdateSocialNetwork)
	api.Delete("/social-networks/:networkId", project.DeleteSocialNetwork)
	api.Post("/projects/:id/members", project.AddMember)
	api.Delete("/projects/:projectId/members/:userId", project.RemoveMember)
	api.Put("/users/:userId/password", project.ChangePassword)

	plan := handlers.NewPlanHandler(projectService, generatorService)
	api.Get("/projects/:id/content-plans", plan.ListPlans)
	api.Post("/projects/:id/content-plans", plan.UpsertPlan)
	api.Post("/content-plans/:planId/generate", plan.GeneratePlan)

	post := handlers.NewPostHandler(postService, generatorService)
	api.Get("/projects/:id/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts", post.CreatePost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.DeletePost)
	api.Post("/posts/:id/generate", post.GeneratePost)

	sched := handlers.NewSchedulerHandler(postScheduler, postRepo)
	api.Get("/scheduler/stats", sched.Stats)
	api.Post("/scheduler/check", sched.Check)
	api.Post("/scheduler/start", sched.Start)
	api.Post("/scheduler/stop", sched.Stop)
	api.Get("/scheduler/queue", sched.Queue)
	api.Get("/scheduler/history", sched.History)
	api.Post("/scheduler/retry/:postId", sched.Retry)

	upload := handlers.NewUploadHandler(mediaService, uploadRepo)
	api.Post("/upload", upload.UploadFile)
	api.Get("/projects/:id/uploads", upload.ListUploads)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, postScheduler)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, sched *scheduler.PostScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	sched.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
