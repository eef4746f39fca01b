package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/cli"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/cultureindex"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/imagepipe"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/storage"
)

// imagePreview caps how much of a data URI is echoed in record output.
const imagePreview = 64

func parsePieceID(raw string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid piece id %q", raw)
	}
	return id, nil
}

func newPieceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "piece <id>",
		Short: "Show an art piece",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePieceID(args[0])
			if err != nil {
				return err
			}
			gw, err := opts.gateway()
			if err != nil {
				return err
			}
			var piece *cultureindex.Piece
			err = opts.withSpinner(cmd, "reading piece "+id.String(), func(ctx context.Context) error {
				piece, err = gw.PieceByID(ctx, id)
				return err
			})
			if err != nil {
				return err
			}
			return printPiece(cmd, opts, piece)
		},
	}
}

func newTopCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the top-voted art piece",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := opts.gateway()
			if err != nil {
				return err
			}
			var piece *cultureindex.Piece
			err = opts.withSpinner(cmd, "reading top-voted piece", func(ctx context.Context) error {
				piece, err = gw.TopVotedPiece(ctx)
				return err
			})
			if err != nil {
				return err
			}
			return printPiece(cmd, opts, piece)
		},
	}
}

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of pieces created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := opts.gateway()
			if err != nil {
				return err
			}
			var count *big.Int
			err = opts.withSpinner(cmd, "reading piece count", func(ctx context.Context) error {
				count, err = gw.PieceCount(ctx)
				return err
			})
			if err != nil {
				return err
			}
			out := cli.NewPrinter(cmd.OutOrStdout())
			if opts.jsonOut {
				return out.JSON(map[string]*big.Int{"pieceCount": count})
			}
			out.Record([]cli.Field{{Key: "pieces", Value: count.String()}})
			return nil
		},
	}
}

func newHasVotedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "has-voted <id> <address>",
		Short: "Report whether an address has voted for a piece",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePieceID(args[0])
			if err != nil {
				return err
			}
			if !common.IsHexAddress(args[1]) {
				return fmt.Errorf("invalid address %q", args[1])
			}
			voter := common.HexToAddress(args[1])
			gw, err := opts.gateway()
			if err != nil {
				return err
			}
			var voted bool
			err = opts.withSpinner(cmd, "checking vote", func(ctx context.Context) error {
				voted, err = gw.HasVoted(ctx, id, voter)
				return err
			})
			if err != nil {
				return err
			}
			out := cli.NewPrinter(cmd.OutOrStdout())
			if opts.jsonOut {
				return out.JSON(map[string]interface{}{"pieceId": id, "voter": voter, "hasVoted": voted})
			}
			out.Record([]cli.Field{
				{Key: "piece", Value: id.String()},
				{Key: "voter", Value: voter.Hex()},
				{Key: "voted", Value: fmt.Sprintf("%t", voted)},
			})
			return nil
		},
	}
}

func newVoteTxCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vote-tx <id>",
		Short: "Print the transaction a frame vote button returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePieceID(args[0])
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// Encoding is offline; the caller is never used.
			gw, err := cultureindex.NewGateway(offlineCaller{}, cultureindex.Config{
				Address: cfg.Chain.ContractAddress,
				ChainID: cfg.Chain.ChainID,
			})
			if err != nil {
				return err
			}
			call, err := gw.BuildVoteCall(id)
			if err != nil {
				return err
			}
			return cli.NewPrinter(cmd.OutOrStdout()).JSON(call)
		},
	}
}

func newDecodeVoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode-vote <calldata>",
		Short: "Decode vote(uint256) calldata into its piece id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hexutil.Decode(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid calldata: %w", err)
			}
			id, err := cultureindex.DecodeVoteCall(data)
			if err != nil {
				return err
			}
			out := cli.NewPrinter(cmd.OutOrStdout())
			if opts.jsonOut {
				return out.JSON(map[string]*big.Int{"pieceId": id})
			}
			out.Record([]cli.Field{
				{Key: "method", Value: cultureindex.VoteSignature},
				{Key: "piece", Value: id.String()},
			})
			return nil
		},
	}
}

func newOptimizeCmd(opts *options) *cobra.Command {
	var (
		upload    bool
		outPath   string
		precision int
	)
	cmd := &cobra.Command{
		Use:   "optimize <file|data-uri>",
		Short: "Minify an SVG the way the frame does before hosting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readSVG(args[0])
			if err != nil {
				return err
			}
			dataURI := "data:" + imagepipe.SVGMediaType + ";base64," + base64.StdEncoding.EncodeToString(raw)
			status := cli.NewPrinter(cmd.ErrOrStderr())

			if !upload {
				pipe, err := imagepipe.New(imagepipe.Config{Optimizer: imagepipe.NewSVGOptimizer(precision)})
				if err != nil {
					return err
				}
				optimized, err := pipe.Optimize(dataURI)
				if err != nil {
					return err
				}
				status.Info(fmt.Sprintf("%d -> %d bytes, digest %s", len(raw), len(optimized), imagepipe.Digest(raw)))
				if outPath != "" {
					return os.WriteFile(outPath, optimized, 0o644)
				}
				_, err = cmd.OutOrStdout().Write(optimized)
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			uploader, err := storage.New(storage.Config{
				SecretKey:  cfg.Storage.SecretKey,
				UploadURL:  cfg.Storage.UploadURL,
				GatewayURL: cfg.Storage.GatewayURL,
				Timeout:    opts.timeout,
			})
			if err != nil {
				return err
			}
			pipe, err := imagepipe.New(imagepipe.Config{
				Optimizer: imagepipe.NewSVGOptimizer(precision),
				Uploader:  uploader,
			})
			if err != nil {
				return err
			}
			var url string
			err = opts.withSpinner(cmd, "uploading", func(ctx context.Context) error {
				url, err = pipe.Process(ctx, dataURI)
				return err
			})
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return cli.NewPrinter(cmd.OutOrStdout()).JSON(map[string]string{"url": url})
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the optimized SVG and print its URL")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the optimized SVG to a file instead of stdout")
	cmd.Flags().IntVar(&precision, "precision", 3, "significant digits kept in path coordinates")
	return cmd
}

// readSVG accepts an SVG data URI or a path to an SVG file.
func readSVG(arg string) ([]byte, error) {
	if imagepipe.IsDataSVG(arg) {
		return imagepipe.DecodeDataURI(arg)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}
	return data, nil
}

func printPiece(cmd *cobra.Command, opts *options, piece *cultureindex.Piece) error {
	out := cli.NewPrinter(cmd.OutOrStdout())
	if opts.jsonOut {
		return out.JSON(piece)
	}

	image := piece.Metadata.Image
	if len(image) > imagePreview {
		image = image[:imagePreview] + "..."
	}
	creators := make([]string, 0, len(piece.Creators))
	for _, c := range piece.Creators {
		creators = append(creators, fmt.Sprintf("%s (%s bps)", c.Address.Hex(), c.Bps))
	}
	out.Record([]cli.Field{
		{Key: "piece", Value: piece.ID.String()},
		{Key: "name", Value: piece.Metadata.Name},
		{Key: "description", Value: piece.Metadata.Description},
		{Key: "media", Value: piece.Metadata.MediaType.String()},
		{Key: "image", Value: image},
		{Key: "creators", Value: strings.Join(creators, ", ")},
		{Key: "sponsor", Value: piece.Sponsor.Hex()},
		{Key: "dropped", Value: fmt.Sprintf("%t", piece.IsDropped)},
		{Key: "created at block", Value: piece.CreationBlock.String()},
	})
	return nil
}

type offlineCaller struct{}

func (offlineCaller) CallContract(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, fmt.Errorf("offline")
}
