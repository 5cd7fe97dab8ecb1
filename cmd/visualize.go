/*****************************************************************************************************************/

package cmd

/*****************************************************************************************************************/

import (
	"fmt"
	"image/color"
	"image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/lodestar-space/startracker/pkg/blob"
	"github.com/lodestar-space/startracker/pkg/constellation"
	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/database"
	ximage "github.com/lodestar-space/startracker/pkg/image"
	"github.com/lodestar-space/startracker/pkg/projection"
	"github.com/lodestar-space/startracker/pkg/threshold"
	"github.com/lodestar-space/startracker/pkg/triangle"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

var (
	VisualizeImagePath    string
	VisualizeDatabasePath string
	VisualizeOutputPath   string
	VisualizeWidth        int
	VisualizeHeight       int
	VisualizeFocalLength  float64
	VisualizeThreshold    float64
	VisualizeMaxStars     int
	VisualizeMarkerSize   int
	VisualizeMinBlobSize  int
)

/*****************************************************************************************************************/

var visualizeCommand = &cobra.Command{
	Use:   "visualize",
	Short: "visualize annotates an image with detected blob centroids and, given a database, resolved star matches.",
	Long:  "visualize runs blob detection (and, if a database is given, Pyramid identification) against an image and writes an annotated PNG overlay, the visualisation tooling external to the core pipeline.",
	Run: func(cmd *cobra.Command, args []string) {
		params := RunVisualizeParams{
			ImagePath:        VisualizeImagePath,
			DatabasePath:     VisualizeDatabasePath,
			OutputPath:       VisualizeOutputPath,
			Width:            VisualizeWidth,
			Height:           VisualizeHeight,
			FocalLength:      VisualizeFocalLength,
			ThresholdPercent: VisualizeThreshold,
			MaxStars:         VisualizeMaxStars,
			MarkerSize:       VisualizeMarkerSize,
			MinBlobSize:      VisualizeMinBlobSize,
		}

		if err := RunVisualize(params); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("Wrote annotated image to %s\n", params.OutputPath)
	},
}

/*****************************************************************************************************************/

func init() {
	visualizeCommand.Flags().StringVarP(&VisualizeImagePath, "image", "i", "", "Path to the input image (PGM, or raw bytes if --width/--height are set)")
	visualizeCommand.MarkFlagRequired("image")

	visualizeCommand.Flags().StringVarP(&VisualizeDatabasePath, "database", "d", "", "Path to a frozen JSON star database; if omitted only blob detection is drawn")
	visualizeCommand.Flags().StringVarP(&VisualizeOutputPath, "output", "o", "visualize.png", "Path to write the annotated PNG")

	visualizeCommand.Flags().IntVarP(&VisualizeWidth, "width", "w", 0, "Image width, required only for a raw (headerless) byte image")
	visualizeCommand.Flags().IntVarP(&VisualizeHeight, "height", "", 0, "Image height, required only for a raw (headerless) byte image")

	visualizeCommand.Flags().Float64VarP(&VisualizeFocalLength, "focal-length", "f", 1000, "Pinhole focal length in pixels")
	visualizeCommand.Flags().Float64VarP(&VisualizeThreshold, "threshold-percent", "t", 0.98, "Fraction of pixels treated as background when thresholding")
	visualizeCommand.Flags().IntVarP(&VisualizeMaxStars, "max-stars", "n", 16, "Maximum number of brightest blobs handed to identification")
	visualizeCommand.Flags().IntVarP(&VisualizeMarkerSize, "marker-size", "m", 12, "Length, in pixels, of the marker arms drawn right of and below each detected centroid")
	visualizeCommand.Flags().IntVarP(&VisualizeMinBlobSize, "min-blob-size", "", 1, "Minimum pixel count for a detected blob; smaller blobs (hot pixels) are discarded")
}

/*****************************************************************************************************************/

type RunVisualizeParams struct {
	ImagePath        string
	DatabasePath     string
	OutputPath       string
	Width            int
	Height           int
	FocalLength      float64
	ThresholdPercent float64
	MaxStars         int
	MarkerSize       int
	MinBlobSize      int
}

/*****************************************************************************************************************/

// RunVisualize draws the centroid of each of the params.MaxStars
// brightest detected blobs onto a copy of the source image, and, if params.DatabasePath names a database, resolves
// the observed stars against it and draws a labelled circle over each
// confirmed match.
func RunVisualize(params RunVisualizeParams) error {
	imgFile, err := os.Open(params.ImagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer imgFile.Close()

	source, err := loadImage(imgFile, params.Width, params.Height)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}

	working, err := ximage.NewByteImageFrom(snapshot(source), source.Width(), source.Height())
	if err != nil {
		return fmt.Errorf("snapshot image: %w", err)
	}

	t, err := threshold.NewPercent(working, params.ThresholdPercent)
	if err != nil {
		return fmt.Errorf("build threshold: %w", err)
	}
	threshold.ApplyBin(t, working)

	stack := containers.NewList[units.Pixel](4096)
	blobs := containers.NewList[blob.Blob](256)
	minBlobSize := params.MinBlobSize
	if minBlobSize <= 0 {
		minBlobSize = 1
	}
	blob.FindBlobs(minBlobSize, 128, working, stack, blobs)

	points := containers.NewList[units.Vector2](params.MaxStars)
	blob.ToVector2(blobs, points)

	annotated, err := ximage.NewByteImageFrom(snapshot(source), source.Width(), source.Height())
	if err != nil {
		return fmt.Errorf("copy image for annotation: %w", err)
	}
	for _, p := range points.Slice() {
		drawPoint(annotated, units.Pixel{X: int(p.X), Y: int(p.Y)}, params.MarkerSize, 255)
	}

	dc := gg.NewContext(annotated.Width(), annotated.Height())
	for y := 0; y < annotated.Height(); y++ {
		for x := 0; x < annotated.Width(); x++ {
			gray := float64(annotated.Get(units.Pixel{X: x, Y: y})) / 255
			dc.SetRGB(gray, gray, gray)
			dc.SetPixel(x, y)
		}
	}

	if params.DatabasePath != "" {
		if err := drawMatches(dc, points, source, params); err != nil {
			return err
		}
	}

	outFile, err := os.Create(params.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	if err := png.Encode(outFile, dc.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

/*****************************************************************************************************************/

// drawMatches resolves the detected points against the named database
// and, on success, draws a circle and an RA/Dec label over each
// confirmed match, in the teacher's own match-overlay style.
func drawMatches(dc *gg.Context, points *containers.List[units.Vector2], source ximage.Image, params RunVisualizeParams) error {
	dbFile, err := os.Open(params.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbFile.Close()

	db, err := database.Load(dbFile)
	if err != nil {
		return fmt.Errorf("load database: %w", err)
	}

	principal := units.Vector2{X: float64(source.Width()) / 2, Y: float64(source.Height()) / 2}
	intrinsic := projection.Intrinsic{FocalLength: params.FocalLength, PrincipalPoint: principal}
	extrinsic := projection.IdentityExtrinsic()

	stars := make([]units.Equatorial, 0, points.Size())
	for _, p := range points.Slice() {
		camera := intrinsic.FromImage(p)
		world := extrinsic.ToWorld(camera)
		stars = append(stars, units.EquatorialFromVector3(world))
	}
	if len(stars) < 3 {
		return nil
	}

	candidates := containers.NewList[triangle.Match[triangle.StarTriangle[int]]](256)
	triangle.FindMatchTriangle(stars, db, 32, candidates)

	resolved := constellation.Resolve(
		stars, db, candidates,
		constellation.DeterminantSpecularity{Min: constellation.DefaultSpecularityMin},
		constellation.GreedyPilotFinder{PairsPerSide: 32},
		constellation.ErrorCountAbort{Max: 10},
	)
	if resolved.Status != constellation.StatusSuccess {
		return nil
	}

	draw := func(observed, catalog units.Equatorial) {
		camera := extrinsic.ToImage(observed.ToVector3())
		p, err := intrinsic.ToImage(camera)
		if err != nil {
			return
		}

		dc.SetColor(color.RGBA{R: 129, G: 140, B: 248, A: 255})
		dc.DrawCircle(p.X, p.Y, 20.0)
		dc.SetLineWidth(2)
		dc.Stroke()

		dc.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 255})
		dc.DrawString(fmt.Sprintf("%.3f,%.3f", catalog.RA, catalog.Dec), p.X, p.Y-30)
	}

	if stars3, ok := anyTriangle(resolved); ok {
		draw(stars3.Input.A, stars3.Output.A)
		draw(stars3.Input.B, stars3.Output.B)
		draw(stars3.Input.C, stars3.Output.C)
		return nil
	}

	m := resolved.Pyramid
	draw(m.Input.A, m.Output.A)
	draw(m.Input.B, m.Output.B)
	draw(m.Input.C, m.Output.C)
	draw(m.Input.D, m.Output.D)
	return nil
}

/*****************************************************************************************************************/

func anyTriangle(result constellation.Result) (triangle.Match[triangle.StarTriangle[units.Equatorial]], bool) {
	zero := triangle.StarTriangle[units.Equatorial]{}
	if result.Triangle.Input != zero {
		return result.Triangle, true
	}
	return result.Triangle, false
}

/*****************************************************************************************************************/

// drawPoint marks p with two arms that start one pixel past p and run
// along +y and +x, stopping before p+size (clipped to the image). The
// center pixel itself is left untouched.
func drawPoint(img ximage.Image, p units.Pixel, size int, value byte) {
	for yy := p.Y + 1; yy < min(p.Y+size, img.Height()); yy++ {
		img.Set(units.Pixel{X: p.X, Y: yy}, value)
	}
	for xx := p.X + 1; xx < min(p.X+size, img.Width()); xx++ {
		img.Set(units.Pixel{X: xx, Y: p.Y}, value)
	}
}

/*****************************************************************************************************************/

// snapshot copies every pixel of img into a fresh row-major byte slice,
// used so detection can run on a disposable thresholded copy while the
// original intensities remain available for rendering.
func snapshot(img ximage.Image) []byte {
	out := make([]byte, img.Width()*img.Height())
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			out[y*img.Width()+x] = img.Get(units.Pixel{X: x, Y: y})
		}
	}
	return out
}

/*****************************************************************************************************************/
