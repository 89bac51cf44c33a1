package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapquiz/snapquiz/internal/imaging"
	"github.com/snapquiz/snapquiz/internal/llm"
	"github.com/snapquiz/snapquiz/internal/quizgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate <page-image>...",
	Short: "Generate a quiz from photographed textbook pages",
	Long: "Reads page photos in the order given (file order is page order), generates a\n" +
		"lesson and quiz, validates it against the page text, and prints the result as JSON.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		images, err := loadImages(args)
		if err != nil {
			return err
		}

		qcfg := quizgen.DefaultConfig()
		if age, _ := cmd.Flags().GetInt("target-age"); age > 0 {
			qcfg.TargetAge = age
		}

		ctx := cmd.Context()
		roles, err := buildRoles(ctx, llm.ConfigFromEnv(), qcfg, logger)
		if err != nil {
			return err
		}

		pipeline := quizgen.NewPipeline(roles, imaging.NewOptimizer(logger), qcfg, logger)

		optimize, _ := cmd.Flags().GetBool("optimize")
		level, _ := cmd.Flags().GetString("level")
		quiz, err := pipeline.Generate(ctx, images, quizgen.Options{
			OptimizeImages:    optimize,
			OptimizationLevel: level,
		})
		if err != nil {
			var recapture *quizgen.RecaptureRequiredError
			if errors.As(err, &recapture) {
				return fmt.Errorf("please retake the photos: %s", recapture.Reason)
			}
			return err
		}

		return writeQuiz(cmd, quiz)
	},
}

func init() {
	generateCmd.Flags().Bool("optimize", true, "Preprocess images before generation")
	generateCmd.Flags().String("level", imaging.LevelStandard,
		"Optimization level: standard, high-quality, or max-quality")
	generateCmd.Flags().Int("target-age", 0, "Learner age the quiz is pitched at (default 10)")
	generateCmd.Flags().StringP("out", "o", "", "Write the quiz JSON to a file instead of stdout")
}

// loadImages reads the page photos in argument order; argument position
// is page number.
func loadImages(paths []string) ([]quizgen.EncodedImage, error) {
	images := make([]quizgen.EncodedImage, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page image: %w", err)
		}
		mime, err := mimeFromPath(path)
		if err != nil {
			return nil, err
		}
		images = append(images, quizgen.EncodedImage{Data: data, MIMEType: mime})
	}
	return images, nil
}

func mimeFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".gif":
		return "image/gif", nil
	case ".webp":
		return "image/webp", nil
	}
	return "", fmt.Errorf("unsupported image type %q (use jpg, png, gif, or webp)", filepath.Ext(path))
}

func writeQuiz(cmd *cobra.Command, quiz *quizgen.QuizContent) error {
	out, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	out = append(out, '\n')

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("write quiz: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote quiz to %s\n", path)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
