package frame

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/cultureindex"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/errors"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/logging"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/metrics"
)

// PieceReader reads pieces from the contract.
type PieceReader interface {
	PieceByID(ctx context.Context, id *big.Int) (*cultureindex.Piece, error)
	TopVotedPiece(ctx context.Context) (*cultureindex.Piece, error)
}

// VoteBuilder encodes vote transactions.
type VoteBuilder interface {
	BuildVoteCall(pieceID *big.Int) (*cultureindex.VoteCall, error)
}

// ImageProcessor turns a piece image into a hostable URL.
type ImageProcessor interface {
	Process(ctx context.Context, image string) (string, error)
}

// ControllerConfig assembles a Controller. Images may be nil.
type ControllerConfig struct {
	Pieces     PieceReader
	Votes      VoteBuilder
	Images     ImageProcessor
	Sessions   *SessionCodec
	Controls   ControlSet
	Precedence Precedence
	Logger     *logging.Logger
}

// Controller turns interactions into rendered frames. It is immutable after
// construction.
type Controller struct {
	pieces     PieceReader
	votes      VoteBuilder
	images     ImageProcessor
	sessions   *SessionCodec
	controls   ControlSet
	precedence Precedence
	logger     *logging.Logger
}

// NewController creates a controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Pieces == nil {
		return nil, fmt.Errorf("piece reader required")
	}
	if cfg.Votes == nil {
		return nil, fmt.Errorf("vote builder required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session codec required")
	}
	precedence := cfg.Precedence
	if precedence == "" {
		precedence = PrecedenceAction
	}
	if precedence != PrecedenceAction && precedence != PrecedencePath {
		return nil, fmt.Errorf("unknown precedence %q", precedence)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Controller{
		pieces:     cfg.Pieces,
		votes:      cfg.Votes,
		images:     cfg.Images,
		sessions:   cfg.Sessions,
		controls:   cfg.Controls,
		precedence: precedence,
		logger:     logger,
	}, nil
}

// Result is a rendered frame and the state it carries.
type Result struct {
	State State
	Piece *cultureindex.Piece
	View  View
}

// Handle applies in to prev and renders the resulting piece. Invalid search
// text fails before any contract read.
func (c *Controller) Handle(ctx context.Context, prev State, in Input) (*Result, error) {
	next, err := Transition(prev, in, c.precedence)
	if err != nil {
		c.logger.WithContext(ctx).WithField("input", in.SearchText).Debug("rejected search text")
		return nil, errors.InvalidInput("Invalid pieceId").WithDetails("input", in.SearchText)
	}
	metrics.RecordTransition(transitionLabel(in))

	return c.Render(ctx, next)
}

// Render reads the piece for s and renders it.
func (c *Controller) Render(ctx context.Context, s State) (*Result, error) {
	s = s.Normalized()

	piece, err := c.pieces.PieceByID(ctx, big.NewInt(s.PieceID))
	if err != nil {
		if stderrors.Is(err, cultureindex.ErrPieceNotFound) {
			return nil, errors.NotFound("piece").WithDetails("pieceId", s.PieceID)
		}
		c.logger.WithContext(ctx).WithError(err).WithField("piece_id", s.PieceID).Error("contract read failed")
		return nil, errors.Upstream("contract", err)
	}
	return c.result(ctx, s, piece)
}

// RenderTop renders the top-voted piece. The emitted state is that piece's id.
func (c *Controller) RenderTop(ctx context.Context) (*Result, error) {
	piece, err := c.pieces.TopVotedPiece(ctx)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("top voted piece read failed")
		return nil, errors.Upstream("contract", err)
	}
	if piece.ID == nil || !piece.ID.IsInt64() {
		return nil, errors.Internal("Unexpected piece id", fmt.Errorf("piece id %v out of range", piece.ID))
	}
	return c.result(ctx, State{PieceID: piece.ID.Int64()}, piece)
}

// VoteCall builds the vote transaction for pieceID.
func (c *Controller) VoteCall(pieceID int64) (*cultureindex.VoteCall, error) {
	if pieceID < 0 {
		return nil, errors.InvalidInput("Invalid pieceId")
	}
	call, err := c.votes.BuildVoteCall(big.NewInt(pieceID))
	if err != nil {
		return nil, errors.Internal("Failed to build vote transaction", err)
	}
	return call, nil
}

// Sessions returns the session codec.
func (c *Controller) Sessions() *SessionCodec {
	return c.sessions
}

func (c *Controller) result(ctx context.Context, s State, piece *cultureindex.Piece) (*Result, error) {
	token, err := c.sessions.Encode(s)
	if err != nil {
		return nil, errors.Internal("Failed to sign frame state", err)
	}

	title := strings.TrimSpace(piece.Metadata.Name)
	if title == "" {
		title = fmt.Sprintf("Piece #%d", s.PieceID)
	}

	return &Result{
		State: s,
		Piece: piece,
		View: View{
			Title:    title,
			Image:    c.resolveImage(ctx, piece.Metadata.Image),
			PostURL:  c.controls.BaseURL,
			State:    token,
			Controls: BuildControls(c.controls, s.PieceID),
		},
	}, nil
}

// resolveImage runs the image pipeline and falls back to the raw value on any
// failure, including a panic.
func (c *Controller) resolveImage(ctx context.Context, raw string) (image string) {
	if c.images == nil {
		return raw
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.WithContext(ctx).WithField("panic", r).Warn("image pipeline panicked, using raw image")
			metrics.RecordImagePipeline(metrics.ImageFallback)
			image = raw
		}
	}()

	processed, err := c.images.Process(ctx, raw)
	if err != nil || processed == "" {
		c.logger.WithContext(ctx).WithError(err).Warn("image pipeline failed, using raw image")
		metrics.RecordImagePipeline(metrics.ImageFallback)
		return raw
	}
	return processed
}

func transitionLabel(in Input) string {
	switch {
	case strings.TrimSpace(in.SearchText) != "":
		return "search"
	case in.Button != ButtonNone:
		return string(in.Button)
	case in.HasPathID:
		return "path"
	default:
		return "none"
	}
}
