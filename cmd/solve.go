/*****************************************************************************************************************/

package cmd

/*****************************************************************************************************************/

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/image"
	"github.com/lodestar-space/startracker/pkg/pipeline"
	"github.com/lodestar-space/startracker/pkg/projection"
	"github.com/lodestar-space/startracker/pkg/threshold"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

var (
	SolveImagePath      string
	SolveDatabasePath   string
	SolveWidth          int
	SolveHeight         int
	SolveFocalLength    float64
	SolvePrincipalX     float64
	SolvePrincipalY     float64
	SolveThresholdPct   float64
	SolveMaxStars       int
	SolveMinBlobSize    int
)

/*****************************************************************************************************************/

var solveCommand = &cobra.Command{
	Use:   "solve",
	Short: "solve runs the centroid-to-attitude pipeline against a single image.",
	Long:  "solve reads an image and a frozen database, identifies the observed stars by the Pyramid method, and prints the resulting attitude quaternion as JSON.",
	Run: func(cmd *cobra.Command, args []string) {
		params := RunSolveParams{
			ImagePath:        SolveImagePath,
			DatabasePath:     SolveDatabasePath,
			Width:            SolveWidth,
			Height:           SolveHeight,
			FocalLength:      SolveFocalLength,
			PrincipalPoint:   units.Vector2{X: SolvePrincipalX, Y: SolvePrincipalY},
			ThresholdPercent: SolveThresholdPct,
			MaxStars:         SolveMaxStars,
			MinBlobSize:      SolveMinBlobSize,
		}

		q, err := RunSolve(params)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		encoded, err := json.Marshal(q)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(string(encoded))
	},
}

/*****************************************************************************************************************/

func init() {
	solveCommand.Flags().StringVarP(&SolveImagePath, "image", "i", "", "Path to the input image (PGM, or raw bytes if --width/--height are set)")
	solveCommand.MarkFlagRequired("image")

	solveCommand.Flags().StringVarP(&SolveDatabasePath, "database", "d", "", "Path to the frozen JSON star database")
	solveCommand.MarkFlagRequired("database")

	solveCommand.Flags().IntVarP(&SolveWidth, "width", "w", 0, "Image width, required only for a raw (headerless) byte image")
	solveCommand.Flags().IntVarP(&SolveHeight, "height", "", 0, "Image height, required only for a raw (headerless) byte image")

	solveCommand.Flags().Float64VarP(&SolveFocalLength, "focal-length", "f", 1000, "Pinhole focal length in pixels")
	solveCommand.Flags().Float64VarP(&SolvePrincipalX, "principal-x", "", 0, "Principal point X in pixels; defaults to half the image width if left at zero")
	solveCommand.Flags().Float64VarP(&SolvePrincipalY, "principal-y", "", 0, "Principal point Y in pixels; defaults to half the image height if left at zero")

	solveCommand.Flags().Float64VarP(&SolveThresholdPct, "threshold-percent", "t", 0.98, "Fraction of pixels treated as background when thresholding")
	solveCommand.Flags().IntVarP(&SolveMaxStars, "max-stars", "n", 16, "Maximum number of brightest blobs handed to identification")
	solveCommand.Flags().IntVarP(&SolveMinBlobSize, "min-blob-size", "", 1, "Minimum pixel count for a detected blob; smaller blobs (hot pixels) are discarded")
}

/*****************************************************************************************************************/

type RunSolveParams struct {
	ImagePath        string
	DatabasePath     string
	Width            int
	Height           int
	FocalLength      float64
	PrincipalPoint   units.Vector2
	ThresholdPercent float64
	MaxStars         int
	MinBlobSize      int
}

/*****************************************************************************************************************/

// RunSolve loads the image and database named by params and runs the
// full pipeline, returning the recovered attitude quaternion.
func RunSolve(params RunSolveParams) (units.Quaternion, error) {
	imgFile, err := os.Open(params.ImagePath)
	if err != nil {
		return units.Quaternion{}, fmt.Errorf("open image: %w", err)
	}
	defer imgFile.Close()

	img, err := loadImage(imgFile, params.Width, params.Height)
	if err != nil {
		return units.Quaternion{}, fmt.Errorf("load image: %w", err)
	}

	dbFile, err := os.Open(params.DatabasePath)
	if err != nil {
		return units.Quaternion{}, fmt.Errorf("open database: %w", err)
	}
	defer dbFile.Close()

	db, err := database.Load(dbFile)
	if err != nil {
		return units.Quaternion{}, fmt.Errorf("load database: %w", err)
	}

	principal := params.PrincipalPoint
	if principal.X == 0 && principal.Y == 0 {
		principal = units.Vector2{X: float64(img.Width()) / 2, Y: float64(img.Height()) / 2}
	}
	intrinsic := projection.Intrinsic{FocalLength: params.FocalLength, PrincipalPoint: principal}
	extrinsic := projection.IdentityExtrinsic()

	t, err := threshold.NewPercent(img, params.ThresholdPercent)
	if err != nil {
		return units.Quaternion{}, fmt.Errorf("build threshold: %w", err)
	}

	cfg := pipeline.DefaultConfig(params.MaxStars)
	if params.MinBlobSize > 0 {
		cfg.MinBlobSize = params.MinBlobSize
	}

	return pipeline.Identify(img, t, intrinsic, extrinsic, db, cfg)
}

/*****************************************************************************************************************/

// loadImage reads r as a binary PGM (P5) image, unless width and
// height are both positive, in which case r is read as a headerless
// raw byte grid of exactly width*height pixels.
func loadImage(r io.Reader, width, height int) (image.Image, error) {
	if width > 0 && height > 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read raw image: %w", err)
		}
		return image.NewByteImageFrom(data, width, height)
	}
	return decodePGM(r)
}

/*****************************************************************************************************************/

// decodePGM reads a binary (P5) PGM image: a two-byte magic number,
// whitespace-separated width, height and maximum value, then exactly
// width*height raw bytes. Comment lines beginning with '#' are skipped
// wherever a token is expected, matching the format's own convention.
func decodePGM(r io.Reader) (*image.ByteImage, error) {
	br := bufio.NewReader(r)

	magic, err := nextToken(br)
	if err != nil {
		return nil, fmt.Errorf("read pgm magic: %w", err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("unsupported pgm magic %q, want P5", magic)
	}

	width, err := nextInt(br)
	if err != nil {
		return nil, fmt.Errorf("read pgm width: %w", err)
	}
	height, err := nextInt(br)
	if err != nil {
		return nil, fmt.Errorf("read pgm height: %w", err)
	}
	maxVal, err := nextInt(br)
	if err != nil {
		return nil, fmt.Errorf("read pgm maxval: %w", err)
	}
	if maxVal <= 0 || maxVal > 255 {
		return nil, fmt.Errorf("unsupported pgm maxval %d, want 1-255", maxVal)
	}

	// The single whitespace byte following maxval has already been
	// consumed by nextInt's trailing scan; the rest is the raw pixel
	// dump.
	pixels := make([]byte, width*height)
	if _, err := io.ReadFull(br, pixels); err != nil {
		return nil, fmt.Errorf("read pgm pixel data: %w", err)
	}

	return image.NewByteImageFrom(pixels, width, height)
}

/*****************************************************************************************************************/

// nextToken reads whitespace-delimited bytes from br, skipping '#'
// comment lines, and returns the next non-empty token.
func nextToken(br *bufio.Reader) (string, error) {
	var tok []byte
	inComment := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case inComment:
			if b == '\n' {
				inComment = false
			}
		case b == '#':
			inComment = true
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

/*****************************************************************************************************************/

func nextInt(br *bufio.Reader) (int, error) {
	tok, err := nextToken(br)
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(tok, "%d", &n); err != nil {
		return 0, fmt.Errorf("parse integer token %q: %w", tok, err)
	}
	return n, nil
}

/*****************************************************************************************************************/
