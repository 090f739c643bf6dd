package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/ratelimit"

	"github.com/amezhanin/affilibot/internal/app/bot"
	"github.com/amezhanin/affilibot/internal/app/config"
	"github.com/amezhanin/affilibot/internal/app/handlers"
	"github.com/amezhanin/affilibot/internal/app/logger"
	middlware "github.com/amezhanin/affilibot/internal/app/middleware"
	"github.com/amezhanin/affilibot/internal/app/repository"
	"github.com/amezhanin/affilibot/internal/app/router"
	"github.com/amezhanin/affilibot/internal/app/service"
)

// Telegram allows ~30 messages per second for a bot overall.
const telegramSendRate = 25

func main() {
	// Server run context
	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	_ = godotenv.Load()
	c := config.ParseFlags()
	logger.InitLogger(c.LogLevel)

	//setup repositories
	s := repository.NewDBStorage(c)
	ar := repository.NewAccountRepository(s.DBConn)
	cr := repository.NewCampaignRepository(s.DBConn)
	cvr := repository.NewConversionRepository(s.DBConn)
	wr := repository.NewWithdrawalRepository(s.DBConn)

	// telegram client shared by the notifier and the update loop
	api, err := bot.NewBotAPI(c)
	if err != nil {
		log.Fatal(err)
	}
	notifier := bot.NewNotifier(api, ratelimit.New(telegramSendRate), c.AdminID)

	//setup services
	ts := service.NewTokenService(c)
	as := service.NewAccountService(ar)
	cs := service.NewCampaignService(cr)
	crs := service.NewCreditService(ar, cr, cvr, notifier)
	ws := service.NewWithdrawalService(wr, ar, notifier, c.AdminID, c.MinWithdrawAmount)

	// setup handlers
	ph := handlers.NewPostbackHandler(c.ContextTimeoutSec, crs, c.PostbackSecret)
	ah := handlers.NewAdminHandler(c.ContextTimeoutSec, ws, cs, ts, c.AdminLogin, c.AdminPasswordHash, c.AdminID)

	am := middlware.NewAuthMiddleware(ts, c.AdminLogin)

	r := router.NewAppRouter(ph, ah, am)

	// Start the bot long-poll loop
	tgBot := bot.New(api, notifier, c.AdminID, c.MinWithdrawAmount, as, cs, ws)
	go tgBot.Run(serverCtx)

	// The HTTP Server
	server := &http.Server{Addr: c.ServerAddr, Handler: r}

	// Listen for syscall signals for process to interrupt/quit
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		// Shutdown signal with grace period of 30 seconds
		shutdownCtx, cancelFunc := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancelFunc()
		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		// Trigger graceful shutdown
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	// Run the server
	fmt.Printf("Starting server on port %s...\n", strings.Split(c.ServerAddr, ":")[1])
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	// Wait for server context to be stopped
	<-serverCtx.Done()
}
