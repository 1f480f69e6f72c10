package web

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anonticket/anonticket/internal/config"
	"github.com/anonticket/anonticket/internal/database"
	"github.com/anonticket/anonticket/internal/gitlab"
	"github.com/anonticket/anonticket/internal/idents"
	"github.com/anonticket/anonticket/internal/projects"
	"github.com/anonticket/anonticket/internal/tgbot"
)

func Run(logger *zap.Logger) error {
	conf, err := config.ParseConfig()
	if err != nil {
		return err
	}
	logger.Info("Parsed config", zap.Reflect("config", conf))

	wordlist, err := idents.LoadWordlist(conf.WordList.Path)
	if err != nil {
		return errors.Wrap(err, "Failed to load wordlist")
	}
	logger.Info("Loaded wordlist", zap.String("path", conf.WordList.Path), zap.Int("words", wordlist.Len()))

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		conf.DataBase.Host,
		conf.DataBase.Port,
		conf.DataBase.User,
		conf.DataBase.Pass,
		conf.DataBase.Name,
	)
	db, err := database.OpenDataBase(logger.Named("database"), dsn)
	if err != nil {
		return errors.Wrap(err, "Failed to open database")
	}

	client, err := gitlab.NewClient(conf, logger.Named("gitlab"))
	if err != nil {
		return errors.Wrap(err, "Failed to create gitlab client")
	}

	identService := idents.NewService(wordlist, db)
	lookup := gitlab.NewLookup(client, logger.Named("lookup"))

	fetcher, err := projects.NewFetcher(conf, logger.Named("projects"), db, client)
	if err != nil {
		return errors.Wrap(err, "Failed to create projects fetcher")
	}

	poster, err := gitlab.NewPoster(client, db)
	if err != nil {
		return errors.Wrap(err, "Failed to create poster")
	}

	var bot *tgbot.Bot
	if conf.Telegram.BotToken != "" {
		bot, err = tgbot.NewBot(conf, logger.Named("tgbot"), db)
		if err != nil {
			return errors.Wrap(err, "Failed to create telegram bot")
		}
	}

	s, err := newServer(conf, logger.Named("server"), db, identService, client, lookup, poster, bot)
	if err != nil {
		return errors.Wrap(err, "Failed to create server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(s.run(), "Server failed")
	})
	g.Go(func() error {
		fetcher.Run(ctx)
		return nil
	})
	g.Go(func() error {
		poster.Run(ctx)
		return nil
	})
	if bot != nil {
		g.Go(func() error {
			bot.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}
