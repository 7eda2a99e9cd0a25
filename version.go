package crochet

const Version = "0.1.0"
