package workflow

import (
	"path/filepath"
	"strconv"
	"strings"
)

// builder accumulates a linear flow, wiring each node to its predecessor.
type builder struct {
	graph Graph
}

func (b *builder) add(label, description, typ string) {
	id := "n" + strconv.Itoa(len(b.graph.Nodes)+1)
	b.graph.Nodes = append(b.graph.Nodes, Node{ID: id, Label: label, Description: description, Type: typ})
	if n := len(b.graph.Nodes); n > 1 {
		b.graph.Edges = append(b.graph.Edges, Edge{From: b.graph.Nodes[n-2].ID, To: id})
	}
}

// heuristicGraph builds a generic flow from the kinds of files present when
// the hosted model is unavailable.
func heuristicGraph(filenames []string) *Graph {
	exts := make(map[string]bool)
	mlFiles := map[string]bool{"model.py": true, "train.py": true, "predict.py": true, "inference.py": true}
	hasML := false
	for _, fn := range filenames {
		exts[strings.ToLower(filepath.Ext(fn))] = true
		if mlFiles[strings.ToLower(fn)] {
			hasML = true
		}
	}

	hasPy := exts[".py"]
	hasJSX := exts[".jsx"] || exts[".tsx"] || exts[".js"] || exts[".ts"]
	hasDB := exts[".db"] || exts[".sql"] || exts[".sqlite"]
	hasDoc := exts[".pdf"] || exts[".docx"] || exts[".doc"] ||
		exts[".xlsx"] || exts[".xls"] || exts[".xlsm"] || exts[".csv"] ||
		exts[".pptx"] || exts[".ppt"]

	var b builder
	switch {
	case hasDoc:
		b.add("Document Upload", "User uploads PDF/Word/Excel/PPT file", "entry")
		b.add("File Extraction", "Text extracted from document contents", "process")
		b.add("Text Chunking", "Content split into indexed segments", "process")
		b.add("Embedding Engine", "Embedding model creates vectors", "api")
		b.add("Vector Storage", "Vector database stores document embeddings", "database")
		b.add("Query & Retrieval", "RAG retrieves relevant document sections", "decision")
		b.add("AI Answer", "LLM generates answer from context", "output")
	case hasML && hasPy:
		b.add("Raw Data Input", "Dataset loaded for processing", "entry")
		b.add("Data Processing", "Cleaning, feature engineering, transforms", "process")
		b.add("Model Training", "ML model trained on processed data", "process")
		b.add("Evaluation", "Model performance measured and tuned", "decision")
		b.add("Model Storage", "Trained model persisted to disk", "database")
		b.add("Prediction API", "Model served via API endpoint", "api")
		b.add("Output Results", "Predictions returned to caller", "output")
	case hasJSX && hasPy:
		b.add("User Request", "Browser sends request via UI", "entry")
		b.add("Frontend", "UI components handle interaction", "process")
		b.add("REST API", "Backend routes and validates request", "api")
		b.add("Business Logic", "Core backend processing and computation", "process")
		if hasDB {
			b.add("Database", "Persistent storage layer queried", "database")
		}
		b.add("LLM / RAG", "AI model generates intelligent response", "decision")
		b.add("Response Output", "Structured JSON returned to frontend", "output")
	case hasPy:
		b.add("Input / Trigger", "Request or event enters the system", "entry")
		b.add("API / Router", "Routes request to correct handler", "api")
		b.add("Core Logic", "Main processing and business rules applied", "process")
		if hasDB {
			b.add("Data Store", "Database queried or updated", "database")
		}
		b.add("Result Processing", "Output formatted and validated", "decision")
		b.add("Response", "Final result returned to caller", "output")
	default:
		b.add("Input", "Data or request enters pipeline", "entry")
		b.add("Processing", "Core transformation applied", "process")
		b.add("Logic Layer", "Decision or routing performed", "decision")
		b.add("Storage", "Data persisted or retrieved", "database")
		b.add("Output", "Result delivered to consumer", "output")
	}
	return &b.graph
}
