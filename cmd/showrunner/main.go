package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/ivlev/showrunner/internal/build"
	"github.com/ivlev/showrunner/internal/system"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	episodePtr := flag.String("episode", "", "Путь к episode.yaml (по умолчанию: самый свежий эпизод в episodes/)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в renders/)")
	providerPtr := flag.String("provider", "", "Провайдер генерации ассетов: placeholder, storyboard")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Потоки генерации ассетов")
	forcePtr := flag.Bool("force", false, "Перегенерировать все ассеты, игнорируя кеш")
	changedOnlyPtr := flag.Bool("changed-only", false, "Не трогать ассеты без сайдкаров (сделанные вручную)")
	skipValidationPtr := flag.Bool("skip-validation", false, "Пропустить этап валидации")
	skipQCPtr := flag.Bool("skip-qc", false, "Пропустить этап контроля качества")
	dryRunPtr := flag.Bool("dry-run", false, "Показать план этапов без выполнения")

	flag.Parse()

	episodePath := *episodePtr
	if episodePath == "" {
		latest, err := system.FindLatestEpisode("episodes")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Укажите эпизод через -episode", err)
		}
		episodePath = latest
		fmt.Printf("[*] Выбран эпизод: %s\n", episodePath)
	}

	opts := build.Options{
		Force:          *forcePtr,
		ChangedOnly:    *changedOnlyPtr,
		SkipValidation: *skipValidationPtr,
		SkipQC:         *skipQCPtr,
		DryRun:         *dryRunPtr,
		Provider:       *providerPtr,
		OutputPath:     *outputPtr,
		Workers:        *workersPtr,
	}

	if opts.DryRun {
		fmt.Println("[*] Режим dry-run: этапы не выполняются")
	}

	result := build.Build(context.Background(), episodePath, opts)

	for _, sr := range result.StageResults {
		mark := "[*]"
		if !sr.Success {
			mark = "[!]"
		}
		fmt.Printf("%s %s: %.2fs - %s\n", mark, sr.Name, sr.DurationSec, sr.Message)
	}
	for _, w := range result.Warnings {
		fmt.Printf("[!] %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("[-] %s\n", e)
	}

	if result.Success {
		if result.OutputPath != "" {
			fmt.Printf("[+++] Готово! Видео: %s\n", result.OutputPath)
		} else {
			fmt.Println("[+++] Готово!")
		}
		return
	}
	fmt.Println("[-] Сборка не удалась")
	os.Exit(1)
}
