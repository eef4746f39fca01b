package main

import (
	"context"
	"fmt"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/chain"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/config"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/cultureindex"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/frame"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/hub"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/imagepipe"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/logging"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/server"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/storage"
)

// svgPrecision is the significant-digit budget for path coordinates.
const svgPrecision = 3

type app struct {
	server  *server.Server
	rpc     *chain.Client
	gateway *cultureindex.Gateway
	cache   *imagepipe.RedisCache
	logger  *logging.Logger
}

// newApp wires every component from cfg. Nothing here performs network I/O.
func newApp(cfg *config.Config, logger *logging.Logger) (*app, error) {
	rpc, err := chain.NewClient(chain.Config{RPCURL: cfg.Chain.RPCURL, Timeout: cfg.Chain.Timeout})
	if err != nil {
		return nil, fmt.Errorf("chain client: %w", err)
	}
	gateway, err := cultureindex.NewGateway(rpc, cultureindex.Config{
		Address: cfg.Chain.ContractAddress,
		ChainID: cfg.Chain.ChainID,
	})
	if err != nil {
		return nil, fmt.Errorf("culture index gateway: %w", err)
	}

	a := &app{rpc: rpc, gateway: gateway, logger: logger}
	checks := []server.Check{{
		Name: "chain",
		Fn: func(ctx context.Context) error {
			_, err := rpc.BlockNumber(ctx)
			return err
		},
	}}

	images, err := a.imagePipeline(cfg, logger, &checks)
	if err != nil {
		return nil, err
	}

	sessions, err := frame.NewSessionCodec(cfg.Frame.Secret, frame.State{PieceID: cfg.Frame.InitialPieceID})
	if err != nil {
		return nil, err
	}
	if sessions.Ephemeral() {
		logger.Warn("FRAME_SECRET not set, frame sessions will not survive a restart")
	}

	ctrlCfg := frame.ControllerConfig{
		Pieces:   gateway,
		Votes:    gateway,
		Sessions: sessions,
		Controls: frame.ControlSet{
			BaseURL:  cfg.BasePath(),
			ShareURL: cfg.Frame.ShareComposeURL,
		},
		Precedence: frame.Precedence(cfg.Frame.Precedence),
		Logger:     logger,
	}
	if images != nil {
		ctrlCfg.Images = images
	}
	ctrl, err := frame.NewController(ctrlCfg)
	if err != nil {
		return nil, err
	}

	handlerCfg := frame.HandlerConfig{
		Controller:  ctrl,
		HubRequired: cfg.Hub.Required,
		Logger:      logger,
	}
	if cfg.Hub.APIKey != "" {
		verifier, err := hub.New(hub.Config{APIKey: cfg.Hub.APIKey, APIURL: cfg.Hub.APIURL, Timeout: cfg.Hub.Timeout})
		if err != nil {
			return nil, fmt.Errorf("hub client: %w", err)
		}
		handlerCfg.Verifier = verifier
	} else {
		logger.Warn("NEYNAR_API_KEY not set, frame actions are not verified")
	}

	a.server, err = server.New(server.Config{
		Name:              logger.Service(),
		Version:           version,
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Logger:            logger,
		Checks:            checks,
		Stats:             a.stats(cfg),
		CORSOrigins:       cfg.AllowedOrigins(),
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		TrustedProxies:    cfg.TrustedProxyList(),
	})
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	frame.NewHandler(handlerCfg).RegisterRoutes(a.server.Router())
	return a, nil
}

// imagePipeline returns nil when no upload credentials are configured; pieces
// then render with their raw image.
func (a *app) imagePipeline(cfg *config.Config, logger *logging.Logger, checks *[]server.Check) (*imagepipe.Pipeline, error) {
	if cfg.Storage.SecretKey == "" {
		logger.Info("THIRDWEB_SECRET_KEY not set, image optimization disabled")
		return nil, nil
	}
	uploader, err := storage.New(storage.Config{
		SecretKey:  cfg.Storage.SecretKey,
		UploadURL:  cfg.Storage.UploadURL,
		GatewayURL: cfg.Storage.GatewayURL,
		Timeout:    cfg.Storage.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	pipeCfg := imagepipe.Config{
		Optimizer: imagepipe.NewSVGOptimizer(svgPrecision),
		Uploader:  uploader,
		CacheTTL:  cfg.Cache.TTL,
		Logger:    logger,
	}
	if cfg.Cache.RedisURL != "" {
		cache, err := imagepipe.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("image cache: %w", err)
		}
		a.cache = cache
		pipeCfg.Cache = cache
		*checks = append(*checks, server.Check{Name: "redis", Fn: cache.Ping})
	}
	return imagepipe.New(pipeCfg)
}

func (a *app) stats(cfg *config.Config) func() map[string]any {
	return func() map[string]any {
		return map[string]any{
			"chain_id":         a.gateway.ChainID(),
			"contract":         a.gateway.Address().Hex(),
			"initial_piece_id": cfg.Frame.InitialPieceID,
			"precedence":       cfg.Frame.Precedence,
			"image_cache":      a.cache != nil,
			"hub_required":     cfg.Hub.Required,
		}
	}
}

// Close releases long-lived connections.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.WithError(err).Warn("failed to close image cache")
		}
	}
	a.rpc.Close()
}
