// Command gen generates type-safe gorm query builders for the loyalty persistence models.
package main

import (
	"loyalty/internal/infra/persistence/model"

	"gorm.io/gen"
)

func main() {
	generator := gen.NewGenerator(gen.Config{
		OutPath:       "./internal/infra/persistence/postgres/query",
		Mode:          gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable: true,
	})

	generator.ApplyBasic(model.All()...)

	generator.Execute()
}
