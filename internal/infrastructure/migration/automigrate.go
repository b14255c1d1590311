package migration

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/constants"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PlanModel{},
		&models.SubscriptionModel{},
		&models.SubscriptionHistoryModel{},
		&models.PaymentModel{},
		&models.ProcessedGatewayEventModel{},
	}
}

const immutableLedgerMessage = "history record is immutable"

// InstallLedgerGuards adds database triggers that abort any UPDATE or DELETE on the
// subscription history table, including raw SQL that bypasses the model hooks.
func InstallLedgerGuards(db *gorm.DB) error {
	table := constants.TableSubscriptionHistories

	var statements []string
	switch db.Dialector.Name() {
	case "sqlite":
		for _, op := range []string{"UPDATE", "DELETE"} {
			statements = append(statements, fmt.Sprintf(
				"CREATE TRIGGER IF NOT EXISTS trg_%s_no_%s BEFORE %s ON %s BEGIN SELECT RAISE(ABORT, '%s'); END;",
				table, strings.ToLower(op), op, table, immutableLedgerMessage,
			))
		}
	case "mysql":
		for _, op := range []string{"UPDATE", "DELETE"} {
			name := fmt.Sprintf("trg_%s_no_%s", table, strings.ToLower(op))
			statements = append(statements,
				fmt.Sprintf("DROP TRIGGER IF EXISTS %s", name),
				fmt.Sprintf(
					"CREATE TRIGGER %s BEFORE %s ON %s FOR EACH ROW SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = '%s'",
					name, op, table, immutableLedgerMessage,
				),
			)
		}
	default:
		return fmt.Errorf("ledger guards not supported for dialect %q", db.Dialector.Name())
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install ledger guard: %w", err)
		}
	}
	return nil
}
