package mongostore

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/categories"
	"github.com/JaimeStill/moodmap/internal/corpus"
)

// categoryDoc is one entry of the emotion level mapping collection.
type categoryDoc struct {
	Cluster      int          `bson:"cluster"`
	EmotionLevel string       `bson:"emotion_level"`
	Color        string       `bson:"color,omitempty"`
	Embedding    []float64    `bson:"embedding,omitempty"`
	Synonyms     []synonymDoc `bson:"synonyms,omitempty"`
}

type synonymDoc struct {
	Term      string    `bson:"term"`
	Embedding []float64 `bson:"embedding,omitempty"`
}

// tweetDoc is one entry of an embedded tweet collection.
type tweetDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Time      string        `bson:"tweets_time"`
	Username  string        `bson:"username"`
	Text      string        `bson:"tweets"`
	Embedding embedding     `bson:"embedding,omitempty"`
}

// embedding decodes a stored vector leniently. A value that is not a
// numeric array decodes as empty, so the tweet reads as missing its
// embedding instead of failing the whole cursor.
type embedding []float64

func (e *embedding) UnmarshalBSONValue(typ byte, data []byte) error {
	var v []float64
	if err := (bson.RawValue{Type: bson.Type(typ), Value: data}).Unmarshal(&v); err != nil {
		*e = nil
		return nil
	}
	*e = v
	return nil
}

// labelDoc is a manual annotation keyed by the tweet's id.
type labelDoc struct {
	ID       bson.ObjectID `bson:"_id"`
	LabelIdx int           `bson:"label_idx"`
	Label    string        `bson:"label"`
}

// assignedDoc is one output record. Emotion details keep the field names
// the visualizer already reads.
type assignedDoc struct {
	ID         bson.ObjectID  `bson:"_id"`
	Collection string         `bson:"collection"`
	Title      string         `bson:"title"`
	Text       string         `bson:"tweets"`
	Username   string         `bson:"username"`
	Timestamp  string         `bson:"timestamp"`
	Embeddings []float64      `bson:"embeddings,omitempty"`
	Score      float64        `bson:"score"`
	Details    emotionDetails `bson:"emotion_details"`
}

type emotionDetails struct {
	Cluster             int                  `bson:"assigned_cluster"`
	Label               string               `bson:"EMOTION_LABELS"`
	Color               string               `bson:"EMOTION_COLOR"`
	Method              string               `bson:"method,omitempty"`
	Reducer             string               `bson:"reducer,omitempty"`
	Scores              map[string]float64   `bson:"all_medians,omitempty"`
	TopSimilarities     map[string][]float64 `bson:"top_similarities,omitempty"`
	PrototypeCluster    *int                 `bson:"prototype_cluster,omitempty"`
	PrototypeSimilarity *float64             `bson:"prototype_similarity,omitempty"`
	SupervisedCluster   *int                 `bson:"supervised_cluster,omitempty"`
	Agreement           *bool                `bson:"agreement,omitempty"`
}

func (d categoryDoc) category() categories.Category {
	refs := make([]categories.Reference, 0, len(d.Synonyms))
	for _, s := range d.Synonyms {
		if len(s.Embedding) == 0 {
			continue
		}
		refs = append(refs, categories.Reference{Term: s.Term, Embedding: toFloat32(s.Embedding)})
	}

	c := categories.Category{
		ID:         d.Cluster,
		Label:      d.EmotionLevel,
		Color:      d.Color,
		Embedding:  toFloat32(d.Embedding),
		References: refs,
	}
	switch {
	case len(refs) > 0:
		c.Dimensions = len(refs[0].Embedding)
	default:
		c.Dimensions = len(c.Embedding)
	}
	return c
}

func newCategoryDoc(c categories.Category) categoryDoc {
	doc := categoryDoc{
		Cluster:      c.ID,
		EmotionLevel: c.Label,
		Color:        c.Color,
		Embedding:    toFloat64(c.Embedding),
	}
	for _, r := range c.References {
		doc.Synonyms = append(doc.Synonyms, synonymDoc{Term: r.Term, Embedding: toFloat64(r.Embedding)})
	}
	return doc
}

func (d tweetDoc) document(collection string) corpus.Document {
	emb := toFloat32(d.Embedding)
	return corpus.Document{
		ID:         d.ID.Hex(),
		Collection: collection,
		Author:     d.Username,
		Timestamp:  d.Time,
		Text:       d.Text,
		Embedding:  emb,
		Dimensions: len(emb),
		CreatedAt:  d.ID.Timestamp(),
	}
}

func newAssignedDoc(rec assignments.Record) (assignedDoc, error) {
	id, err := bson.ObjectIDFromHex(rec.DocumentID)
	if err != nil {
		return assignedDoc{}, ErrInvalidID
	}

	doc := assignedDoc{
		ID:         id,
		Collection: rec.Collection,
		Title:      rec.Title,
		Text:       rec.Text,
		Username:   rec.Author,
		Timestamp:  rec.Timestamp,
		Embeddings: toFloat64(rec.Vector),
		Score:      rec.Score,
		Details: emotionDetails{
			Cluster: rec.CategoryID,
			Label:   rec.Label,
			Color:   rec.Color,
		},
	}

	if d := rec.Diagnostics; d != nil {
		doc.Details.Method = d.Method
		doc.Details.Reducer = d.Reducer
		doc.Details.Scores = d.Scores
		doc.Details.TopSimilarities = d.TopSimilarities
		doc.Details.PrototypeCluster = &d.PrototypeCategory
		doc.Details.PrototypeSimilarity = &d.PrototypeSimilarity
		doc.Details.SupervisedCluster = d.SupervisedCategory
		doc.Details.Agreement = d.Agreement
	}
	return doc, nil
}

// streamFilter selects documents for one keyset page.
func streamFilter(opts corpus.StreamOptions, after *bson.ObjectID) (bson.M, error) {
	if opts.RequireEmbedding && opts.MissingEmbedding {
		return nil, corpus.ErrConflictingScan
	}

	filter := bson.M{}
	switch {
	case opts.RequireEmbedding:
		filter["embedding"] = bson.M{"$exists": true, "$ne": bson.A{}}
	case opts.MissingEmbedding:
		filter["embedding"] = bson.M{"$exists": false}
	}
	if after != nil {
		filter["_id"] = bson.M{"$gt": *after}
	}
	return filter, nil
}

func toFloat32(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
