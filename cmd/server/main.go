package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"crmserver/database"
	"crmserver/internal/config"
	"crmserver/server"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════")
	log.Println("🚀 Запуск CRM Contacts Server...")

	// .env необязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(); err == nil {
		log.Println("Переменные окружения загружены из .env")
	}

	// Загружаем конфигурацию
	log.Println("[1/3] Загрузка конфигурации...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("✗ Ошибка загрузки конфигурации: %v", err)
	}
	log.Printf("✓ Конфигурация загружена. Порт: %s", cfg.Port)

	// Создаем конфигурацию для БД
	dbConfig := database.DBConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	// Создаем базу данных контактов
	log.Println("[2/3] Инициализация базы данных контактов...")
	db, err := database.NewContactsDBWithConfig(cfg.DatabasePath, dbConfig)
	if err != nil {
		log.Fatalf("✗ Не удалось инициализировать базу данных по пути %s: %v", cfg.DatabasePath, err)
	}
	defer db.Close()
	log.Printf("✓ БД контактов инициализирована: %s", cfg.DatabasePath)

	// Создаем сервер
	log.Println("[3/3] Создание сервера...")
	srv := server.NewServer(db, cfg)
	log.Printf("✓ Сервер создан")

	// Запускаем сервер в отдельной горутине
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Fatalf("✗ КРИТИЧЕСКАЯ ОШИБКА: Паника при запуске сервера: %v", r)
			}
		}()
		if err := srv.Start(); err != nil {
			log.Fatalf("✗ КРИТИЧЕСКАЯ ОШИБКА: Ошибка запуска сервера: %v", err)
		}
	}()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("═══════════════════════════════════════════════════════")
	log.Println("⏹  Получен сигнал завершения, останавливаю сервер...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("✗ Ошибка при остановке сервера: %v", err)
	} else {
		log.Println("✓ Сервер успешно остановлен")
	}
}
