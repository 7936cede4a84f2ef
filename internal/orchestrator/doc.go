// Package orchestrator управляет жизненным циклом launches.
//
// Orchestrator отвечает за:
//   - Получение новых launches из очереди RabbitMQ
//   - Прогон pipeline запуска (дескриптор, sizing, submissions)
//   - Перестройку графа зависимостей jobs на каждом завершении
//   - Перевод jobs с открытыми gates в очередь воркеров
//   - Каскадный провал jobs с упавшими SUCCESS-зависимостями
//   - Финализацию launches (COMPLETED/FAILED)
//
// Orchestrator — это "мозг" системы, который координирует выполнение.
// Он рассчитан на один экземпляр: jobs в БД — источник истины, но
// защита от двойной обработки launch действует только внутри процесса.
package orchestrator
