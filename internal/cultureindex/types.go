package cultureindex

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ArtPiece mirrors the ICultureIndex.ArtPiece tuple. Field names follow the
// ABI decoder's camel-casing so unpacked values convert directly.
type ArtPiece struct {
	PieceId       *big.Int
	Metadata      ArtPieceMetadata
	Creators      []CreatorBps
	Sponsor       common.Address
	IsDropped     bool
	CreationBlock *big.Int
}

// ArtPieceMetadata mirrors ICultureIndex.ArtPieceMetadata.
type ArtPieceMetadata struct {
	Name         string
	Description  string
	MediaType    uint8
	Image        string
	Text         string
	AnimationUrl string
}

// CreatorBps mirrors ICultureIndex.CreatorBps.
type CreatorBps struct {
	Creator common.Address
	Bps     *big.Int
}

// MediaType is the kind of media a piece carries.
type MediaType uint8

const (
	MediaNone MediaType = iota
	MediaImage
	MediaAnimation
	MediaAudio
	MediaText
	MediaOther
)

var mediaTypeNames = [...]string{"NONE", "IMAGE", "ANIMATION", "AUDIO", "TEXT", "OTHER"}

func (m MediaType) String() string {
	if int(m) < len(mediaTypeNames) {
		return mediaTypeNames[m]
	}
	return fmt.Sprintf("MediaType(%d)", uint8(m))
}

// MarshalJSON encodes the media type by name.
func (m MediaType) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Piece is a read-only snapshot of an art piece.
type Piece struct {
	ID            *big.Int       `json:"pieceId"`
	Metadata      Metadata       `json:"metadata"`
	Creators      []Creator      `json:"creators"`
	Sponsor       common.Address `json:"sponsor"`
	IsDropped     bool           `json:"isDropped"`
	CreationBlock *big.Int       `json:"creationBlock"`
}

// Metadata describes the piece's content.
type Metadata struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MediaType    MediaType `json:"mediaType"`
	Image        string    `json:"image"`
	Text         string    `json:"text"`
	AnimationURL string    `json:"animationUrl"`
}

// Creator is a revenue-share entry in basis points.
type Creator struct {
	Address common.Address `json:"creator"`
	Bps     *big.Int       `json:"bps"`
}

func (a *ArtPiece) toPiece() *Piece {
	p := &Piece{
		ID: a.PieceId,
		Metadata: Metadata{
			Name:         a.Metadata.Name,
			Description:  a.Metadata.Description,
			MediaType:    MediaType(a.Metadata.MediaType),
			Image:        a.Metadata.Image,
			Text:         a.Metadata.Text,
			AnimationURL: a.Metadata.AnimationUrl,
		},
		Creators:      make([]Creator, 0, len(a.Creators)),
		Sponsor:       a.Sponsor,
		IsDropped:     a.IsDropped,
		CreationBlock: a.CreationBlock,
	}
	for _, c := range a.Creators {
		p.Creators = append(p.Creators, Creator{Address: c.Creator, Bps: c.Bps})
	}
	return p
}
