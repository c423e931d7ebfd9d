package app

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BeArt-PDD/beart-labs/internal/clients"
	"github.com/BeArt-PDD/beart-labs/internal/config"
	"github.com/BeArt-PDD/beart-labs/internal/db"
	"github.com/BeArt-PDD/beart-labs/internal/events"
	"github.com/BeArt-PDD/beart-labs/internal/handlers"
	"github.com/BeArt-PDD/beart-labs/internal/middleware"
	"github.com/BeArt-PDD/beart-labs/internal/nonce"
	"github.com/BeArt-PDD/beart-labs/internal/repository"
	"github.com/BeArt-PDD/beart-labs/internal/router"
	"github.com/BeArt-PDD/beart-labs/internal/services"
	"github.com/BeArt-PDD/beart-labs/internal/utils"
)

// ServiceContainer holds every long-lived dependency of the service
type ServiceContainer struct {
	Config *config.Config
	Logger *logrus.Logger

	// Database (nil when nonces are kept in memory)
	DB        *gorm.DB
	NonceRepo repository.NonceRepository

	NonceStore nonce.Store

	// Events
	NATSClient *clients.NATSClient
	Publisher  events.Publisher

	// Core Services
	Sessions *services.SessionService
	SignIn   *services.SignInService
	Sweeper  *services.NonceSweeperService
}

// NewServiceContainer wires the service from cfg. NATS is optional: a
// connection failure is logged and events are dropped.
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	logger := logrus.StandardLogger()
	logger.Info("🚀 Initializing Service Container...")

	c := &ServiceContainer{Config: cfg, Logger: logger}

	if err := c.registerChains(); err != nil {
		return nil, err
	}

	if err := c.initNonceStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize nonce store: %w", err)
	}

	c.initEvents()

	secret, err := jwtSecret(cfg.JWT.Secret)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Sessions = services.NewSessionService(secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	c.SignIn = services.NewSignInService(cfg.SIWE, c.NonceStore, c.Sessions, c.Publisher, utils.GlobalChainRegistry)
	c.Sweeper = services.NewNonceSweeperService(c.NonceStore, cfg.SIWE.SweepInterval)

	logger.WithFields(logrus.Fields{
		"domain": cfg.SIWE.Domain,
		"chain":  utils.GlobalChainRegistry.Name(cfg.SIWE.ChainID),
	}).Info("✅ Service Container initialized successfully")
	return c, nil
}

func (c *ServiceContainer) registerChains() error {
	for name, network := range c.Config.Blockchain.Networks {
		if !network.Enabled {
			continue
		}
		chainName := network.Name
		if chainName == "" {
			chainName = name
		}
		if err := utils.GlobalChainRegistry.Register(&utils.ChainInfo{
			ChainID:     network.ChainID,
			Name:        chainName,
			Symbol:      network.Symbol,
			ExplorerURL: network.ExplorerURL,
		}); err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}
	}

	if _, ok := utils.GlobalChainRegistry.Get(c.Config.SIWE.ChainID); !ok {
		c.Logger.WithField("chain_id", c.Config.SIWE.ChainID).
			Warn("⚠️ Sign-in chain is not in the chain registry")
	}
	return nil
}

func (c *ServiceContainer) initNonceStore() error {
	if c.Config.Database.DSN == "" {
		c.Logger.Warn("⚠️ No database configured, nonces are kept in memory (single instance only)")
		c.NonceStore = nonce.NewMemoryStore()
		return nil
	}

	database, err := db.Open(c.Config.Database)
	if err != nil {
		return err
	}
	c.DB = database
	c.NonceRepo = repository.NewNonceRepository(database)
	c.NonceStore = c.NonceRepo
	return nil
}

func (c *ServiceContainer) initEvents() {
	c.Publisher = events.NoopPublisher{}
	if c.Config.NATS.URL == "" {
		c.Logger.Info("NATS not configured, sign-in events are disabled")
		return
	}

	client, err := clients.NewNATSClient(c.Config.NATS)
	if err != nil {
		c.Logger.WithError(err).Warn("⚠️ NATS unavailable, sign-in events are disabled")
		return
	}
	c.NATSClient = client
	c.Publisher = events.NewNATSPublisher(client, c.Config.NATS.SubjectPrefix)
}

// jwtSecret returns the configured secret, or a random one that lives as
// long as the process.
func jwtSecret(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	logrus.Warn("⚠️ jwt.secret not set, generated an ephemeral secret; sessions will not survive a restart")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return secret, nil
}

// Router builds the HTTP engine over the container's services
func (c *ServiceContainer) Router() *gin.Engine {
	return router.SetupRouter(router.Dependencies{
		Config:      c.Config,
		Logger:      c.Logger,
		AuthHandler: handlers.NewAuthHandler(c.SignIn, c.Logger),
		Auth:        middleware.NewAuthMiddleware(c.Logger, c.Sessions),
		Sweeper:     c.Sweeper,
		Health:      c.Health,
	})
}

// Health reports whether the nonce backend is reachable
func (c *ServiceContainer) Health() error {
	if c.DB == nil {
		return nil
	}
	return db.Ping(c.DB)
}

// Start launches background work
func (c *ServiceContainer) Start(ctx context.Context) {
	c.Sweeper.Start(ctx)
}

// Close stops background work and releases connections
func (c *ServiceContainer) Close() {
	if c.Sweeper != nil {
		c.Sweeper.Stop()
	}
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	if c.DB != nil {
		if err := db.Close(c.DB); err != nil {
			c.Logger.WithError(err).Warn("⚠️ Failed to close database")
		}
	}
}
