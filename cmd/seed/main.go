package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/internal/app/repository"
	"github.com/havaxeban925-ux/scm-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// 컬럼 순서: 샵 ID, 샵 이름, 키 ID, 공개 풀 동시 보유 한도
const (
	colShopID = iota
	colName
	colKeyID
	colIntentCap
	minColumns = colName + 1
)

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <shops.xlsx>")
	}

	filePath := os.Args[1]

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	shops, skipped, err := readShopsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Shops to import: %d (skipped rows: %d)\n", len(shops), skipped)
	if len(shops) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	repos := repository.NewRepositories(db.GetDB())
	affected, err := repos.Shops.Upsert(shops)
	if err != nil {
		log.Fatal("Failed to upsert shops:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Rows written: %d\n", affected)
}

func readShopsFromXLSX(filePath string) ([]model.Shop, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	// 첫 번째 시트만 읽는다
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	shops, skipped := parseShopRows(rows[1:])
	return shops, skipped, nil
}

// parseShopRows turns sheet rows (header excluded) into registry entries.
// Rows without an id or name are skipped; a repeated id keeps the first row.
func parseShopRows(rows [][]string) ([]model.Shop, int) {
	var shops []model.Shop
	seen := make(map[string]bool) // 중복 제거용
	skipped := 0

	for _, row := range rows {
		if len(row) < minColumns {
			skipped++
			continue
		}

		shopID := strings.TrimSpace(row[colShopID])
		name := strings.TrimSpace(row[colName])
		if shopID == "" || name == "" || seen[shopID] {
			skipped++
			continue
		}
		seen[shopID] = true

		shop := model.Shop{
			ID:                    shopID,
			Name:                  name,
			ActivePublicIntentCap: model.DefaultActivePublicIntentCap,
		}
		if len(row) > colKeyID {
			shop.KeyID = strings.TrimSpace(row[colKeyID])
		}
		if len(row) > colIntentCap {
			if capValue, err := strconv.Atoi(strings.TrimSpace(row[colIntentCap])); err == nil && capValue > 0 {
				shop.ActivePublicIntentCap = capValue
			}
		}
		shops = append(shops, shop)
	}

	return shops, skipped
}
