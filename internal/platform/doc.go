// Package platform реализует контракт платформы исполнения jobs:
// submit, resolveOutput и listArtifacts.
//
// Submit персистит job в статусе PENDING; постановкой в очередь
// управляет orchestrator, когда gate зависимостей откроется.
// ResolveOutput возвращает forward-ссылку немедленно, не дожидаясь
// завершения производителя: потребитель такой ссылки автоматически
// получает зависимость от её job'а.
package platform
