package main

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// Regenerates query helpers from a live schema. Dev aid, run by hand after a
// migration; the checked-in model structs stay the source of truth.
func main() {
	g := gen.NewGenerator(gen.Config{
		OutPath:      "../../gen",
		ModelPkgPath: "gen", // avoid helper functions
		Mode:         gen.WithoutContext | gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	g.WithDataTypeMap(map[string]func(gorm.ColumnType) (dataType string){
		"time": func(gorm.ColumnType) string {
			return "string"
		},
		"decimal": func(gorm.ColumnType) string {
			return "float64"
		},
	})

	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(localhost:3306)/hadirku?parseTime=true"
	}
	gormdb, _ := gorm.Open(mysql.Open(dsn))
	g.UseDB(gormdb)

	g.GenerateModel("offices")
	g.GenerateModel("shifts")
	g.GenerateModel("user_shifts")
	g.GenerateModel("attendance_records")
	g.ApplyBasic()

	g.Execute()
}
