package frame

import (
	"context"
	stderrors "errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/cultureindex"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/errors"
)

const svgDataImage = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciLz4="

type fakePieces struct {
	reads   []int64
	image   string
	readErr error
	top     int64
}

func (f *fakePieces) PieceByID(_ context.Context, id *big.Int) (*cultureindex.Piece, error) {
	f.reads = append(f.reads, id.Int64())
	if f.readErr != nil {
		return nil, f.readErr
	}
	return &cultureindex.Piece{
		ID:       new(big.Int).Set(id),
		Metadata: cultureindex.Metadata{Name: "Piece", Image: f.image, MediaType: cultureindex.MediaImage},
	}, nil
}

func (f *fakePieces) TopVotedPiece(ctx context.Context) (*cultureindex.Piece, error) {
	return f.PieceByID(ctx, big.NewInt(f.top))
}

type fakeImages struct {
	url   string
	err   error
	panic bool
}

func (f *fakeImages) Process(_ context.Context, image string) (string, error) {
	if f.panic {
		panic("optimizer exploded")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestGateway(t *testing.T) *cultureindex.Gateway {
	t.Helper()
	g, err := cultureindex.NewGateway(&noCaller{}, cultureindex.Config{})
	require.NoError(t, err)
	return g
}

type noCaller struct{}

func (noCaller) CallContract(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, stderrors.New("unused")
}

func newTestController(t *testing.T, pieces PieceReader, images ImageProcessor, p Precedence) *Controller {
	t.Helper()
	sessions, err := NewSessionCodec("test-secret", State{PieceID: 216})
	require.NoError(t, err)

	ctrl, err := NewController(ControllerConfig{
		Pieces:     pieces,
		Votes:      newTestGateway(t),
		Images:     images,
		Sessions:   sessions,
		Controls:   ControlSet{BaseURL: "https://frame.example.com/api", ShareURL: "https://warpcast.com/~/compose"},
		Precedence: p,
	})
	require.NoError(t, err)
	return ctrl
}

func TestNewController_Validation(t *testing.T) {
	_, err := NewController(ControllerConfig{})
	require.Error(t, err)

	sessions, err := NewSessionCodec("s", State{})
	require.NoError(t, err)
	_, err = NewController(ControllerConfig{
		Pieces:     &fakePieces{},
		Votes:      newTestGateway(t),
		Sessions:   sessions,
		Precedence: "sideways",
	})
	require.Error(t, err)
}

func TestController_HandleReadsNextPiece(t *testing.T) {
	pieces := &fakePieces{image: "https://example.com/a.png"}
	ctrl := newTestController(t, pieces, nil, PrecedenceAction)

	result, err := ctrl.Handle(context.Background(), State{PieceID: 10}, Input{Button: ButtonInc})
	require.NoError(t, err)

	assert.Equal(t, []int64{11}, pieces.reads)
	assert.Equal(t, int64(11), result.State.PieceID)
	assert.Equal(t, "https://example.com/a.png", result.View.Image)
	assert.Equal(t, "https://frame.example.com/api", result.View.PostURL)
	assert.Equal(t, "Enter piece id... (current: 11)", result.View.Controls[0].Label)

	decoded, err := ctrl.Sessions().Decode(result.View.State)
	require.NoError(t, err)
	assert.Equal(t, int64(11), decoded.PieceID)
}

func TestController_InvalidSearchSkipsRead(t *testing.T) {
	pieces := &fakePieces{}
	ctrl := newTestController(t, pieces, nil, PrecedenceAction)

	_, err := ctrl.Handle(context.Background(), State{PieceID: 10}, Input{SearchText: "abc"})
	require.Error(t, err)

	se := errors.GetServiceError(err)
	require.NotNil(t, se)
	assert.Equal(t, errors.CodeInvalidInput, se.Code)
	assert.Equal(t, "Invalid pieceId", se.Message)
	assert.Empty(t, pieces.reads)
}

func TestController_NegativeStateNormalized(t *testing.T) {
	pieces := &fakePieces{}
	ctrl := newTestController(t, pieces, nil, PrecedenceAction)

	result, err := ctrl.Handle(context.Background(), State{PieceID: 0}, Input{Button: ButtonDec})
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, pieces.reads)
	assert.Equal(t, int64(0), result.State.PieceID)
}

func TestController_ImageFallback(t *testing.T) {
	tests := []struct {
		name   string
		images ImageProcessor
		want   string
	}{
		{"optimized", &fakeImages{url: "https://ipfs.io/ipfs/Qm/a.svg"}, "https://ipfs.io/ipfs/Qm/a.svg"},
		{"pipeline error", &fakeImages{err: stderrors.New("upload failed")}, svgDataImage},
		{"pipeline panic", &fakeImages{panic: true}, svgDataImage},
		{"empty result", &fakeImages{}, svgDataImage},
		{"no pipeline", nil, svgDataImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(t, &fakePieces{image: svgDataImage}, tt.images, PrecedenceAction)

			result, err := ctrl.Render(context.Background(), State{PieceID: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.View.Image)
		})
	}
}

func TestController_ReadErrors(t *testing.T) {
	ctrl := newTestController(t, &fakePieces{readErr: stderrors.New("rpc down")}, nil, PrecedenceAction)
	_, err := ctrl.Render(context.Background(), State{PieceID: 1})
	assert.True(t, errors.Is(err, errors.CodeUpstream))

	ctrl = newTestController(t, &fakePieces{readErr: cultureindex.ErrPieceNotFound}, nil, PrecedenceAction)
	_, err = ctrl.Render(context.Background(), State{PieceID: 1})
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestController_RenderTop(t *testing.T) {
	pieces := &fakePieces{top: 250}
	ctrl := newTestController(t, pieces, nil, PrecedenceAction)

	result, err := ctrl.RenderTop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(250), result.State.PieceID)
	assert.Equal(t, "https://frame.example.com/api/vote/250", result.View.Controls[4].Target)
}

func TestController_VoteCall(t *testing.T) {
	ctrl := newTestController(t, &fakePieces{}, nil, PrecedenceAction)

	call, err := ctrl.VoteCall(42)
	require.NoError(t, err)
	assert.Equal(t, "0x0121b93f000000000000000000000000000000000000000000000000000000000000002a", call.Params.Data)

	_, err = ctrl.VoteCall(-1)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}
