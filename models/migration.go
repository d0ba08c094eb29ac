package models

import (
	"log"

	"github.com/dtsgroup/bizreg_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Province{}, &Ward{}, &Industry{},
		&Business{}, &License{}, &Employee{},
		&InspectionBatch{}, &InspectionSchedule{}, &InspectionReport{}, &ViolationResult{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
