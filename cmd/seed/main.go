// Command seed populates a development database with the clinic's doctor
// roster and a batch of synthetic patients and appointments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/clinicinfo"
	"github.com/clinicdesk/clinic-secretary/internal/doctors"
	"github.com/clinicdesk/clinic-secretary/internal/patients"
)

func main() {
	_ = godotenv.Load()

	patientCount := flag.Int("patients", 25, "number of synthetic patients to create")
	apptCount := flag.Int("appointments", 40, "number of synthetic appointments to create")
	seed := flag.Uint64("seed", 0, "fake data seed (0 = random)")
	flag.Parse()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	faker := gofakeit.New(*seed)

	info, err := clinicinfo.Load(os.Getenv("CLINIC_INFO_PATH"))
	if err != nil {
		log.Fatalf("load clinic document: %v", err)
	}

	doctorRepo := doctors.NewRepository(pool, nil)
	patientRepo := patients.NewRepository(pool, nil)
	apptRepo := appointments.NewRepository(pool, nil)

	roster, err := seedDoctors(ctx, doctorRepo, info, faker)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	fmt.Printf("seeded %d doctors\n", len(roster))

	var people []*patients.Patient
	for i := 0; i < *patientCount; i++ {
		p, err := patientRepo.UpsertByPhone(ctx, faker.Name(), faker.Phone(), faker.Email())
		if err != nil {
			log.Fatalf("seed patient: %v", err)
		}
		people = append(people, p)
	}
	fmt.Printf("seeded %d patients\n", len(people))

	if len(roster) == 0 || len(people) == 0 {
		return
	}

	types := []string{"consultation", "checkup", "follow-up", "routine"}
	created := 0
	for i := 0; i < *apptCount; i++ {
		day := time.Now().AddDate(0, 0, faker.Number(1, 21))
		at := time.Date(day.Year(), day.Month(), day.Day(), faker.Number(9, 16), 0, 0, 0, time.Local)
		_, err := apptRepo.Create(ctx, appointments.CreateRequest{
			PatientID:   people[faker.Number(0, len(people)-1)].ID,
			DoctorID:    roster[faker.Number(0, len(roster)-1)].ID,
			ScheduledAt: at,
			Type:        types[faker.Number(0, len(types)-1)],
		})
		if err != nil {
			// Random slots collide; skip and keep going.
			continue
		}
		created++
	}
	fmt.Printf("seeded %d appointments\n", created)
}

// seedDoctors creates one row per doctor named in the clinic document so that
// chat bookings by specialty resolve against a real roster.
func seedDoctors(ctx context.Context, repo *doctors.Repository, info *clinicinfo.Info, faker *gofakeit.Faker) ([]*doctors.Doctor, error) {
	var out []*doctors.Doctor
	seen := map[string]bool{}
	for _, spec := range info.Specialties {
		for _, name := range spec.Doctors {
			if seen[name] {
				continue
			}
			seen[name] = true
			license := fmt.Sprintf("MD-%06d", faker.Number(100000, 999999))
			d, err := repo.Create(ctx, name, faker.Email(), faker.Phone(), spec.Name, license)
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", name, err)
			}
			out = append(out, d)
		}
	}
	return out, nil
}
