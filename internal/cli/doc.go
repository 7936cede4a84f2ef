// Package cli реализует инструмент командной строки Lanekeeper.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Lanekeeper API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для запуска launches и просмотра их состояния.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Lanekeeper API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	launches, err := client.ListLaunches(cli.ListLaunchesOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: lanekeeper launch list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - launch: list, start, show, jobs
//   - job: show
//   - artifact: list
//
// Каждая группа создаётся через фабричную функцию (NewLaunchCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
//
// Запрос для launch start описывается YAML-файлом:
//
//	manifest: /incoming/R42/manifest.json
//	workflow: demux-2.4
//	consolidator: consolidate-1.1
//	folder: /results
//
//	lanekeeper launch start -f request.yaml
package cli
