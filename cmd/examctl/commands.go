package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"examquiz/internal/repository"
	"examquiz/internal/scoring"
	"examquiz/internal/security"
	"examquiz/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Migrations applied (%s)\n", a.db.Dialect.DriverName())
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the auto-reject sweep over approved questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		threshold, _ := cmd.Flags().GetFloat64("threshold")
		if !cmd.Flags().Changed("threshold") {
			threshold = a.cfg.AutoRejectThreshold
		}

		var reporter service.ReportSender
		if notify, _ := cmd.Flags().GetBool("notify"); notify {
			email, err := service.NewEmailService(cmd.Context(), a.cfg.AWSRegion, a.cfg.SESFromEmail, a.cfg.SESFromName, a.cfg.ReviewReportEmails, a.log)
			if err != nil {
				return fmt.Errorf("create email service: %w", err)
			}
			reporter = email
		}

		review := service.NewReviewService(a.db, scoring.AutoRejectRule{Threshold: threshold}, a.cfg.AutoRejectBatchSize, reporter, a.log)
		report, err := review.AutoReject(cmd.Context())
		if report != nil {
			for _, q := range report.Questions {
				fmt.Printf("rejected question %-6d correct %6.2f  incorrect %6.2f\n", q.QuestionID, q.AvgCorrectLength, q.AvgIncorrectLength)
			}
		}
		if err != nil {
			return err
		}

		fmt.Println(report.SweepMessage())
		fmt.Printf("skipped %d, malformed %d\n", report.Skipped, report.Failed)
		return nil
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak <uid>",
	Short: "Show a learner's daily streak",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		streaks := a.streakService()
		lookup := streaks.Info
		if track, _ := cmd.Flags().GetBool("track"); track {
			lookup = streaks.Track
		}
		status, err := lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Current streak:    %d\n", status.CurrentStreak)
		fmt.Printf("Longest streak:    %d\n", status.LongestStreak)
		fmt.Printf("Answered today:    %d\n", status.QuestionsAnsweredToday)
		fmt.Printf("Needed today:      %d\n", status.QuestionsNeededToday)
		fmt.Printf("Streak maintained: %t\n", status.StreakMaintained)
		return nil
	},
}

var topLearnersCmd = &cobra.Command{
	Use:   "top-learners <uid>",
	Short: "Show the global top learners as seen by a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		leaderboard := service.NewLeaderboardService(
			repository.NewLearnerRepository(a.db),
			repository.NewResultRepository(a.db),
			a.cfg.Location(),
		)
		top, err := leaderboard.TopLearners(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%-4s  %-30s  %10s\n", "Pos", "Name", "Score")
		fmt.Println(strings.Repeat("─", 48))
		for _, row := range top.Rankings {
			marker := ""
			if row.IsCurrentLearner {
				marker = "  <- you"
			}
			if row.NotInTop10 {
				fmt.Println("...")
			}
			fmt.Printf("%-4d  %-30s  %10.2f%s\n", row.Position, row.Name, row.Score, marker)
		}
		fmt.Printf("\n%d learner(s) ranked\n", top.TotalLearners)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export learners, questions, attempts and streaks to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}
		if dir := filepath.Dir(output); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}

		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer file.Close()

		backup, err := service.NewBackupService(a.db, a.log).Export(cmd.Context(), file)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d learners, %d questions, %d attempts to %s\n",
			len(backup.Learners), len(backup.Questions), len(backup.Results), output)
		return nil
	},
}

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Print the ADMIN_TOKEN_HASH value for an admin token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := security.HashAdminToken(args[0])
		if err != nil {
			return fmt.Errorf("hash token: %w", err)
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	sweepCmd.Flags().Float64("threshold", scoring.DefaultAutoRejectThreshold, "Length difference above which a question is rejected (default from AUTO_REJECT_THRESHOLD)")
	sweepCmd.Flags().Bool("notify", false, "Email the sweep report to REVIEW_REPORT_EMAILS")
	streakCmd.Flags().Bool("track", false, "Count a qualifying action before showing the streak")
	exportCmd.Flags().String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
}
