// Package launch реализует pipeline запуска обработки run:
// parse дескриптора → sizing → consolidation → lane fan-out → aggregator.
//
// Pipeline однопоточный и неблокирующий: он отправляет jobs на
// платформу и возвращается, не дожидаясь их выполнения. Весь реальный
// параллелизм — забота платформы, выраженная через зависимости jobs:
// consolidation строго раньше всех lane jobs (forward-ссылка на tarball),
// все lane jobs строго раньше агрегатора (явный dependency set).
// Порядок lane jobs между собой не гарантирован.
//
// Любая ошибка фатальна: pipeline прерывается до отправки следующего
// job и не откатывает уже отправленные. Retry-политика принадлежит
// платформе, не pipeline'у.
package launch
