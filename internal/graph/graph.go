// Package graph строит граф зависимостей jobs одного launch
// и вычисляет, чьи gates открыты.
//
// Граф строится из сохранённых jobs при каждом событии завершения
// (и при восстановлении после рестарта): узлы — jobs, рёбра — явные
// DependsOn плюс неявные зависимости от forward references.
// Ацикличность проверяется сортировкой Кана при построении.
package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// Node — узел графа зависимостей.
type Node struct {
	// Job — job, которому принадлежит узел. Статусы gates читаются
	// прямо из Job.Status, поэтому узлы отражают живое состояние.
	Job *domain.Job

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// ID возвращает идентификатор job узла.
func (n *Node) ID() uuid.UUID {
	return n.Job.ID
}

// GateOpen возвращает true, если зависимости узла удовлетворяют
// его gate:
//   - SUCCESS: все зависимости SUCCEEDED
//   - TERMINAL: все зависимости достигли терминального статуса,
//     независимо от успеха
func (n *Node) GateOpen() bool {
	for _, dep := range n.DependsOn {
		switch n.Job.Gate {
		case domain.GateTerminal:
			if !dep.Job.Status.IsTerminal() {
				return false
			}
		default:
			if dep.Job.Status != domain.JobStatusSucceeded {
				return false
			}
		}
	}
	return true
}

// Doomed возвращает true, если узел уже не сможет стартовать:
// gate SUCCESS и хотя бы одна зависимость FAILED.
func (n *Node) Doomed() bool {
	if n.Job.Gate == domain.GateTerminal {
		return false
	}
	for _, dep := range n.DependsOn {
		if dep.Job.Status == domain.JobStatusFailed {
			return true
		}
	}
	return false
}

// Graph — граф зависимостей jobs одного launch.
type Graph struct {
	// Nodes — все узлы графа (job ID → Node).
	Nodes map[uuid.UUID]*Node

	// Roots — узлы без зависимостей (стартуют сразу).
	Roots []*Node

	// Order — топологически отсортированный список узлов.
	Order []*Node
}

// Build строит граф из списка jobs и проверяет его корректность:
// уникальность ID, известность зависимостей, отсутствие циклов.
func Build(jobs []*domain.Job) (*Graph, error) {
	g := &Graph{
		Nodes: make(map[uuid.UUID]*Node, len(jobs)),
		Roots: make([]*Node, 0),
	}

	// Первый проход: создаём все узлы
	for _, job := range jobs {
		if _, exists := g.Nodes[job.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
		}
		g.Nodes[job.ID] = &Node{
			Job:        job,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по зависимостям
	for _, job := range jobs {
		node := g.Nodes[job.ID]
		for _, depID := range job.DependsOn {
			if depID == job.ID {
				return nil, fmt.Errorf("%w: %s", ErrSelfDependency, job.ID)
			}
			depNode, exists := g.Nodes[depID]
			if !exists {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownDependency, job.ID, depID)
			}
			g.addEdge(depNode, node)
		}
	}

	g.findRoots()

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// addEdge добавляет ребро между узлами.
// Дубликаты рёбер игнорируются, чтобы не задваивать InDegree.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.Job.ID == from.Job.ID {
			return // уже связаны
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRoots находит узлы без входящих рёбер.
func (g *Graph) findRoots() {
	g.Roots = make([]*Node, 0)
	for _, node := range g.Nodes {
		if node.InDegree == 0 {
			g.Roots = append(g.Roots, node)
		}
	}
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (g *Graph) topologicalSort() ([]*Node, error) {
	inDegree := make(map[uuid.UUID]int, len(g.Nodes))
	for id, node := range g.Nodes {
		inDegree[id] = node.InDegree
	}

	queue := make([]*Node, len(g.Roots))
	copy(queue, g.Roots)

	order := make([]*Node, 0, len(g.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.Job.ID]--
			if inDegree[dependent.Job.ID] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}

// Ready возвращает PENDING jobs, чьи gates открыты.
// Порядок — топологический, чтобы диспетчеризация шла детерминированно.
func (g *Graph) Ready() []*Node {
	ready := make([]*Node, 0)
	for _, node := range g.Order {
		if node.Job.Status != domain.JobStatusPending {
			continue
		}
		if node.GateOpen() {
			ready = append(ready, node)
		}
	}
	return ready
}

// Doomed возвращает PENDING jobs, которые уже не смогут стартовать
// из-за упавшей SUCCESS-зависимости. Orchestrator каскадно проваливает
// их; после этого следующий вызов увидит их dependents.
func (g *Graph) Doomed() []*Node {
	doomed := make([]*Node, 0)
	for _, node := range g.Order {
		if node.Job.Status != domain.JobStatusPending {
			continue
		}
		if node.Doomed() {
			doomed = append(doomed, node)
		}
	}
	return doomed
}

// GetNode возвращает узел по ID job.
func (g *Graph) GetNode(id uuid.UUID) *Node {
	return g.Nodes[id]
}

// Size возвращает количество узлов в графе.
func (g *Graph) Size() int {
	return len(g.Nodes)
}

// IsComplete возвращает true, если все jobs графа терминальны.
func (g *Graph) IsComplete() bool {
	for _, node := range g.Nodes {
		if !node.Job.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// Failed возвращает true, если хотя бы один job графа FAILED.
func (g *Graph) Failed() bool {
	for _, node := range g.Nodes {
		if node.Job.Status == domain.JobStatusFailed {
			return true
		}
	}
	return false
}
