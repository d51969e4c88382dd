package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository/postgres"
	"github.com/jwalitptl/clinic-booking/internal/service/doctor"
	"github.com/jwalitptl/clinic-booking/internal/service/user"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

const seedPassword = "doctor123"

func newCreateAdminCommand() *cobra.Command {
	var username, email, password, contact string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if email == "" {
				email = cfg.Admin.Email
			}
			if contact == "" {
				contact = cfg.Admin.Contact
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc := user.NewService(postgres.NewUserRepository(db), security.NewBcryptHasher(cfg.Security.BcryptCost))
			created, err := svc.EnsureAdmin(ctx, username, email, password, contact)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin user %s created\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "User %s is an admin\n", username)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email (defaults to admin.email)")
	cmd.Flags().StringVar(&password, "password", "", "password for a new account")
	cmd.Flags().StringVar(&contact, "contact", "", "contact number (defaults to admin.contact)")

	return cmd
}

func newSeedDoctorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-doctors",
		Short: "Insert sample verified doctors when none exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			hash, err := security.NewBcryptHasher(cfg.Security.BcryptCost).Hash(seedPassword)
			if err != nil {
				return fmt.Errorf("failed to hash seed password: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc := doctor.NewService(postgres.NewDoctorRepository(db), postgres.NewUserRepository(db), postgres.NewFeedbackRepository(db))
			n, err := svc.Seed(ctx, seedAccounts(), hash)
			if err != nil {
				return err
			}

			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Doctors already seeded")
				return nil
			}
			log.Info().Int("doctors", n).Msg("doctors seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d doctors (password %q)\n", n, seedPassword)
			return nil
		},
	}
}

func seedAccounts() []doctor.SeedAccount {
	both := model.VisitTypesFor(model.VisitBoth)
	return []doctor.SeedAccount{
		{
			Username: "dr_smith",
			Email:    "smith@clinic.com",
			Contact:  "+91-9876543210",
			Doctor: model.Doctor{
				Name:           "Dr. John Smith",
				Degree:         "MD, MBBS",
				Specialization: "Cardiology",
				Bio:            "Experienced cardiologist with 15 years of practice. Specializes in heart diseases and preventive cardiology.",
				Fees:           1500,
				Location:       "Mumbai",
				ContactInfo:    "smith@clinic.com, +91-9876543210",
				VisitTypes:     both,
				Verified:       true,
			},
		},
		{
			Username: "dr_jones",
			Email:    "jones@clinic.com",
			Contact:  "+91-9876543211",
			Doctor: model.Doctor{
				Name:           "Dr. Emily Jones",
				Degree:         "MD, Pediatrics",
				Specialization: "Pediatrics",
				Bio:            "Dedicated pediatrician focused on child health and development. 10 years experience in pediatric care.",
				Fees:           1200,
				Location:       "Delhi",
				ContactInfo:    "jones@clinic.com, +91-9876543211",
				VisitTypes:     both,
				Verified:       true,
			},
		},
		{
			Username: "dr_brown",
			Email:    "brown@clinic.com",
			Contact:  "+91-9876543212",
			Doctor: model.Doctor{
				Name:           "Dr. Michael Brown",
				Degree:         "MS, Orthopedics",
				Specialization: "Orthopedics",
				Bio:            "Orthopedic surgeon specializing in joint replacements and sports injuries. 12 years of surgical experience.",
				Fees:           2000,
				Location:       "Bangalore",
				ContactInfo:    "brown@clinic.com, +91-9876543212",
				VisitTypes:     model.VisitTypesFor(model.VisitClinic),
				Verified:       true,
			},
		},
		{
			Username: "dr_davis",
			Email:    "davis@clinic.com",
			Contact:  "+91-9876543213",
			Doctor: model.Doctor{
				Name:           "Dr. Sarah Davis",
				Degree:         "MD, Dermatology",
				Specialization: "Dermatology",
				Bio:            "Dermatologist with expertise in skin disorders, cosmetic procedures, and laser treatments.",
				Fees:           1800,
				Location:       "Chennai",
				ContactInfo:    "davis@clinic.com, +91-9876543213",
				VisitTypes:     both,
				Verified:       true,
			},
		},
		{
			Username: "dr_wilson",
			Email:    "wilson@clinic.com",
			Contact:  "+91-9876543214",
			Doctor: model.Doctor{
				Name:           "Dr. Robert Wilson",
				Degree:         "MD, Psychiatry",
				Specialization: "Psychiatry",
				Bio:            "Psychiatrist specializing in mental health disorders, therapy, and medication management.",
				Fees:           1600,
				Location:       "Pune",
				ContactInfo:    "wilson@clinic.com, +91-9876543214",
				VisitTypes:     model.VisitTypesFor(model.VisitOnline),
				Verified:       true,
			},
		},
	}
}
